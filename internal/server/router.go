// Package server assembles the HTTP router.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/prowe12/plantswap/internal/auth"
	"github.com/prowe12/plantswap/internal/listings"
	"github.com/prowe12/plantswap/internal/middleware"
)

// Deps are the collaborators the router wires into routes.
type Deps struct {
	Auth           *auth.Handler
	Authenticator  middleware.Authenticator
	Listings       *listings.Handler
	AllowedOrigins []string
	Log            *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	requireAuth := middleware.RequireAuth(d.Authenticator, d.Log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes
	r.Post("/token", d.Auth.Login)
	r.Route("/users", func(r chi.Router) {
		r.Post("/", d.Auth.Register)
		r.With(requireAuth).Get("/me", d.Auth.Me)
	})

	// Listing routes; reads are public, writes need a token
	r.Route("/shares", func(r chi.Router) {
		r.Get("/", d.Listings.ListShares)
		r.Get("/{id}/photo", d.Listings.DownloadPhoto)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", d.Listings.CreateShare)
			r.Delete("/{id}", d.Listings.DeleteShare)
			r.Put("/{id}/photo", d.Listings.UploadPhoto)
		})
	})
	r.Route("/requests", func(r chi.Router) {
		r.Get("/", d.Listings.ListRequests)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", d.Listings.CreateRequest)
			r.Delete("/{id}", d.Listings.DeleteRequest)
		})
	})

	return r
}

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/prowe12/plantswap/internal/httpx"
	"github.com/prowe12/plantswap/internal/models"
)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Register creates a new user from form fields or a JSON body.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	username, password, err := readCredentials(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), username, password)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusCreated, user)
	case errors.Is(err, ErrInvalidInput):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateUser):
		httpx.Error(w, http.StatusConflict, ErrDuplicateUser.Error())
	default:
		h.log.ErrorContext(r.Context(), "register failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// Login implements the OAuth2 password grant: form fields username and
// password in, {access_token, token_type} out.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username, password, err := readCredentials(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tok, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.Unauthorized(w, ErrInvalidCredentials.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "login failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httpx.WriteJSON(w, http.StatusOK, tok)
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.Unauthorized(w, ErrUnauthenticated.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// readCredentials accepts a JSON body or url-encoded/multipart form fields.
func readCredentials(r *http.Request) (string, string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", "", err
		}
		return req.Username, req.Password, nil
	}
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return "", "", err
		}
	} else if err := r.ParseForm(); err != nil {
		return "", "", err
	}
	return r.PostForm.Get("username"), r.PostForm.Get("password"), nil
}

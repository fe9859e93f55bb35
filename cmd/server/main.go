package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prowe12/plantswap/internal/auth"
	"github.com/prowe12/plantswap/internal/config"
	"github.com/prowe12/plantswap/internal/listings"
	"github.com/prowe12/plantswap/internal/logging"
	"github.com/prowe12/plantswap/internal/server"
	"github.com/prowe12/plantswap/internal/store"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()

	// ── Stores ───────────────────────────────────────────────
	var (
		users       auth.CredentialStore
		listingRepo listings.Store
	)
	if cfg.ListingBackend == config.BackendMemory {
		log.Warn("using in-memory stores; data is lost on restart")
		mem := store.NewMemoryStore()
		users, listingRepo = mem, mem
	} else {
		pgPool, err := store.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connect", "error", err)
			os.Exit(1)
		}
		defer pgPool.Close()
		pgStore := store.NewPostgresStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Error("postgres migrate", "error", err)
			os.Exit(1)
		}
		users, listingRepo = pgStore, pgStore

		if cfg.ListingBackend == config.BackendMongo {
			mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
			if err != nil {
				log.Error("mongo connect", "error", err)
				os.Exit(1)
			}
			defer mongoClient.Disconnect(ctx)
			listingRepo = store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		}
	}

	// ── MinIO ────────────────────────────────────────────────
	var photos listings.PhotoStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioStore(ctx, store.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Error("minio connect", "error", err)
			os.Exit(1)
		}
		photos = minioStore
	} else {
		log.Info("MINIO_ENDPOINT not set; plant photos disabled")
	}

	// ── Auth ─────────────────────────────────────────────────
	tokens := auth.NewTokenManager([]byte(cfg.SecretKey), nil)
	authSvc := auth.NewService(users, auth.NewBcryptHasher(cfg.BcryptCost), tokens, cfg.AccessTokenTTL, log)

	// ── Router ───────────────────────────────────────────────
	r := server.NewRouter(server.Deps{
		Auth:           auth.NewHandler(authSvc, log),
		Authenticator:  auth.NewAuthenticator(tokens, users),
		Listings:       listings.NewHandler(listingRepo, photos, log),
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("plantswap listening", "addr", srv.Addr, "listings", cfg.ListingBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}

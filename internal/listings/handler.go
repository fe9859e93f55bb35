package listings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prowe12/plantswap/internal/auth"
	"github.com/prowe12/plantswap/internal/httpx"
	"github.com/prowe12/plantswap/internal/models"
	"github.com/prowe12/plantswap/internal/store"
)

// MaxPhotoBytes bounds an uploaded plant photo.
const MaxPhotoBytes = 5 << 20

// Store defines the persistence for shares and requests.
type Store interface {
	CreateShare(ctx context.Context, sh *models.Share) (*models.Share, error)
	ListShares(ctx context.Context) ([]models.Share, error)
	GetShare(ctx context.Context, id int64) (*models.Share, error)
	DeleteShare(ctx context.Context, id int64) error
	SetSharePhoto(ctx context.Context, id int64, key string) error

	CreateRequest(ctx context.Context, rq *models.Request) (*models.Request, error)
	ListRequests(ctx context.Context) ([]models.Request, error)
	DeleteRequest(ctx context.Context, id int64) error
}

// PhotoStore defines object storage for share photos.
type PhotoStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds share and request HTTP handlers.
type Handler struct {
	store  Store
	photos PhotoStore // nil when object storage is not configured
	log    *slog.Logger
}

func NewHandler(s Store, photos PhotoStore, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: s, photos: photos, log: log}
}

var deleted = map[string]any{"status": http.StatusOK, "transaction": "Successful"}

// ── shares ───────────────────────────────────────────────────

// CreateShare stores a plant offer. shared_by defaults to the caller.
func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	var sh models.Share
	if err := json.NewDecoder(r.Body).Decode(&sh); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateListing(sh.PlantName, sh.Amount); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if sh.SharedBy == "" {
		sh.SharedBy = callerName(r)
	}

	created, err := h.store.CreateShare(r.Context(), &sh)
	if err != nil {
		h.log.ErrorContext(r.Context(), "create share failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, created)
}

// ListShares returns every shared plant.
func (h *Handler) ListShares(w http.ResponseWriter, r *http.Request) {
	shares, err := h.store.ListShares(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "list shares failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if shares == nil {
		shares = []models.Share{}
	}
	httpx.WriteJSON(w, http.StatusOK, shares)
}

// DeleteShare removes a shared plant and its photo.
func (h *Handler) DeleteShare(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sh, err := h.store.GetShare(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "get share", err)
		return
	}
	if err := h.store.DeleteShare(r.Context(), id); err != nil {
		h.storeError(w, r, "delete share", err)
		return
	}
	if sh.PhotoKey != "" && h.photos != nil {
		if err := h.photos.Remove(r.Context(), sh.PhotoKey); err != nil {
			h.log.WarnContext(r.Context(), "photo cleanup failed", "key", sh.PhotoKey, "error", err)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, deleted)
}

// UploadPhoto stores the request body as the share's photo. The body must be
// an image no larger than MaxPhotoBytes.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		httpx.Error(w, http.StatusServiceUnavailable, "photo storage not configured")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		httpx.Error(w, http.StatusUnsupportedMediaType, "photo must be an image")
		return
	}

	sh, err := h.store.GetShare(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "get share", err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPhotoBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Error(w, http.StatusRequestEntityTooLarge, "photo too large")
			return
		}
		h.log.WarnContext(r.Context(), "photo body read failed", "share", id, "error", err)
		httpx.Error(w, http.StatusBadRequest, "could not read photo")
		return
	}
	if len(data) == 0 {
		httpx.Error(w, http.StatusBadRequest, "empty photo")
		return
	}

	key := fmt.Sprintf("shares/%d/%s", id, uuid.New().String())
	if err := h.photos.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		h.log.ErrorContext(r.Context(), "photo upload failed", "key", key, "error", err)
		httpx.Error(w, http.StatusBadGateway, "photo upload failed")
		return
	}
	if err := h.store.SetSharePhoto(r.Context(), id, key); err != nil {
		if rmErr := h.photos.Remove(r.Context(), key); rmErr != nil {
			h.log.WarnContext(r.Context(), "orphaned photo cleanup failed", "key", key, "error", rmErr)
		}
		h.storeError(w, r, "set share photo", err)
		return
	}
	if sh.PhotoKey != "" {
		if err := h.photos.Remove(r.Context(), sh.PhotoKey); err != nil {
			h.log.WarnContext(r.Context(), "old photo cleanup failed", "key", sh.PhotoKey, "error", err)
		}
	}

	sh.PhotoKey = key
	httpx.WriteJSON(w, http.StatusOK, sh)
}

// DownloadPhoto streams the share's photo.
func (h *Handler) DownloadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		httpx.Error(w, http.StatusServiceUnavailable, "photo storage not configured")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sh, err := h.store.GetShare(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "get share", err)
		return
	}
	if sh.PhotoKey == "" {
		httpx.Error(w, http.StatusNotFound, "photo not available")
		return
	}

	obj, ct, err := h.photos.Get(r.Context(), sh.PhotoKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "photo not available")
			return
		}
		h.log.ErrorContext(r.Context(), "photo download failed", "key", sh.PhotoKey, "error", err)
		httpx.Error(w, http.StatusBadGateway, "download failed")
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", ct)
	if _, err := io.Copy(w, obj); err != nil {
		h.log.WarnContext(r.Context(), "photo stream interrupted", "key", sh.PhotoKey, "error", err)
	}
}

// ── requests ─────────────────────────────────────────────────

// CreateRequest stores a wanted plant. requested_by defaults to the caller.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var rq models.Request
	if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateListing(rq.PlantName, rq.Amount); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if rq.RequestedBy == "" {
		rq.RequestedBy = callerName(r)
	}

	created, err := h.store.CreateRequest(r.Context(), &rq)
	if err != nil {
		h.log.ErrorContext(r.Context(), "create request failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, created)
}

// ListRequests returns every requested plant.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.store.ListRequests(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "list requests failed", "error", err)
		httpx.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if requests == nil {
		requests = []models.Request{}
	}
	httpx.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteRequest(r.Context(), id); err != nil {
		h.storeError(w, r, "delete request", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, deleted)
}

// ── helpers ──────────────────────────────────────────────────

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Plant not found")
		return
	}
	h.log.ErrorContext(r.Context(), op+" failed", "error", err)
	httpx.Error(w, http.StatusInternalServerError, "database error")
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func validateListing(plantName string, amount float64) error {
	if strings.TrimSpace(plantName) == "" {
		return errors.New("plant_name is required")
	}
	if amount < 0 {
		return errors.New("amount must not be negative")
	}
	return nil
}

func callerName(r *http.Request) string {
	if u, ok := auth.PrincipalFromContext(r.Context()); ok {
		return u.Username
	}
	return ""
}

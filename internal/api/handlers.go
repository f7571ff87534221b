package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aiden123456789/Whispers/internal/clustering"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/aiden123456789/Whispers/internal/service"
)

// WhisperService is the application core used by the handlers.
type WhisperService interface {
	Post(ctx context.Context, text string, lat, lng float64) (models.Whisper, error)
	Recent(ctx context.Context) ([]models.Whisper, error)
	Nearby(ctx context.Context, lat, lng float64, opts service.NearbyOptions) ([]models.Whisper, error)
	Clusters(ctx context.Context, lat, lng float64, opts service.ClusterOptions) ([]clustering.Cluster, error)
	Around(ctx context.Context, lat, lng float64, mine int64) (service.Surroundings, error)
}

// PushService stores push subscriptions.
type PushService interface {
	Subscribe(ctx context.Context, sub models.Subscription) error
	PublicKey() string
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the whispers JSON API.
type Handler struct {
	log      *slog.Logger
	whispers WhisperService
	push     PushService
	store    Pinger
}

// NewHandler creates the API handlers.
func NewHandler(log *slog.Logger, whispers WhisperService, push PushService, store Pinger) *Handler {
	return &Handler{log: log, whispers: whispers, push: push, store: store}
}

// ListWhispers returns every whisper inside the retention window.
func (h *Handler) ListWhispers(w http.ResponseWriter, r *http.Request) {
	whispers, err := h.whispers.Recent(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "Failed to list whispers", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, r, http.StatusOK, whisperViews(whispers))
}

// PostWhisper stores a new whisper.
func (h *Handler) PostWhisper(w http.ResponseWriter, r *http.Request) {
	var req postWhisperRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := getValidator().Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Missing fields")
		return
	}

	whisper, err := h.whispers.Post(r.Context(), *req.Text, *req.Lat, *req.Lng)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusCreated, whisper.View())
	case errors.Is(err, service.ErrMissingFields):
		writeError(w, r, http.StatusBadRequest, "Missing fields")
	case errors.Is(err, service.ErrTextTooLong):
		writeError(w, r, http.StatusBadRequest, "Message must be at most "+strconv.Itoa(service.MaxTextLength)+" characters")
	case errors.Is(err, service.ErrInvalidCoordinates):
		writeError(w, r, http.StatusBadRequest, "Invalid lat or lng values")
	default:
		h.log.ErrorContext(r.Context(), "Failed to post whisper", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Server error")
	}
}

// NearbyWhispers returns whispers within a radius of the lat/lng query parameters.
func (h *Handler) NearbyWhispers(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := parsePoint(w, r)
	if !ok {
		return
	}

	radius, ok := parseOptionalFloat(w, r, "radius")
	if !ok {
		return
	}
	precision, ok := parseOptionalInt(w, r, "precision")
	if !ok {
		return
	}

	whispers, err := h.whispers.Nearby(r.Context(), lat, lng, service.NearbyOptions{Radius: radius, Precision: precision})
	if err != nil {
		h.queryError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, whisperViews(whispers))
}

// ClusterWhispers returns the nearby whispers grouped into map markers.
func (h *Handler) ClusterWhispers(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := parsePoint(w, r)
	if !ok {
		return
	}

	radius, ok := parseOptionalFloat(w, r, "radius")
	if !ok {
		return
	}
	group, ok := parseOptionalFloat(w, r, "group")
	if !ok {
		return
	}

	clusters, err := h.whispers.Clusters(r.Context(), lat, lng, service.ClusterOptions{Radius: radius, GroupRadius: group})
	if err != nil {
		h.queryError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, clusterViews(clusters))
}

// AroundWhispers returns the whispers near the user and the marker clusters farther away.
// The optional mine parameter keeps the caller's own whisper in the near group.
func (h *Handler) AroundWhispers(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := parsePoint(w, r)
	if !ok {
		return
	}

	mine, ok := parseOptionalInt(w, r, "mine")
	if !ok {
		return
	}

	around, err := h.whispers.Around(r.Context(), lat, lng, int64(mine))
	if err != nil {
		h.queryError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, aroundResponse{
		Near: whisperViews(around.Near),
		Far:  clusterViews(around.Far),
	})
}

// Subscribe stores a browser push subscription and sends the welcome notification.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := getValidator().Struct(req); err != nil || (req.Lat == nil) != (req.Lng == nil) {
		writeError(w, r, http.StatusBadRequest, "Invalid subscription")
		return
	}

	sub := models.Subscription{Endpoint: req.Endpoint, P256dh: req.Keys.P256dh, Auth: req.Keys.Auth}
	if req.Lat != nil {
		sub.Location = &models.Coordinates{Latitude: *req.Lat, Longitude: *req.Lng}
	}

	if err := h.push.Subscribe(r.Context(), sub); err != nil {
		h.log.ErrorContext(r.Context(), "Failed to subscribe", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// PushKey returns the VAPID public key browsers subscribe with.
func (h *Handler) PushKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"publicKey": h.push.PublicKey()})
}

// Health reports whether the store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.WarnContext(r.Context(), "Health check failed", "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) queryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCoordinates):
		writeError(w, r, http.StatusBadRequest, "Invalid lat or lng values")
	case errors.Is(err, service.ErrInvalidRadius):
		writeError(w, r, http.StatusBadRequest, "Invalid radius")
	case errors.Is(err, service.ErrInvalidPrecision):
		writeError(w, r, http.StatusBadRequest, "Invalid precision")
	default:
		h.log.ErrorContext(r.Context(), "Failed to query nearby whispers", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}

// parsePoint reads the lat and lng query parameters, writing the 400 response itself on failure.
func parsePoint(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	query := r.URL.Query()
	latParam, lngParam := query.Get("lat"), query.Get("lng")
	if latParam == "" || lngParam == "" {
		writeError(w, r, http.StatusBadRequest, "Missing lat or lng query parameters")
		return 0, 0, false
	}

	lat, errLat := strconv.ParseFloat(latParam, 64)
	lng, errLng := strconv.ParseFloat(lngParam, 64)
	if errLat != nil || errLng != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid lat or lng values")
		return 0, 0, false
	}

	return lat, lng, true
}

func parseOptionalFloat(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}

	return v, true
}

func parseOptionalInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}

	return v, true
}

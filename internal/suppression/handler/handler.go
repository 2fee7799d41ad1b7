package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kesher/internal/suppression"
	id "kesher/pkg/domain"
	dErrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/httputil"
	"kesher/pkg/requestcontext"
)

// Service defines the suppression operations the transport layer needs.
type Service interface {
	Hide(ctx context.Context, viewerID, targetID id.UserID) error
	Unhide(ctx context.Context, viewerID, targetID id.UserID) error
	ListHidden(ctx context.Context, viewerID id.UserID) ([]*suppression.Entry, error)
}

// Handler serves the hidden-profiles endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/suppressions", h.handleList)
	r.Post("/suppressions", h.handleHide)
	r.Delete("/suppressions/{userID}", h.handleUnhide)
}

type hideRequest struct {
	UserID string `json:"user_id"`
}

type entryResponse struct {
	UserID   string    `json:"user_id"`
	HiddenAt time.Time `json:"hidden_at"`
}

func (h *Handler) handleHide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req hideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	targetID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id must be a valid user id"))
		return
	}

	if err := h.service.Hide(ctx, callerID, targetID); err != nil {
		h.logger.WarnContext(ctx, "hide profile failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "hidden"})
}

func (h *Handler) handleUnhide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	targetID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}

	if err := h.service.Unhide(ctx, callerID, targetID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "visible"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	entries, err := h.service.ListHidden(ctx, callerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entryResponse{
			UserID:   entry.HiddenUserID.String(),
			HiddenAt: entry.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"hidden": out})
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kesher/internal/visibility"
	id "kesher/pkg/domain"
	dErrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/httputil"
	"kesher/pkg/requestcontext"
)

// Service defines the visibility operations the transport layer needs.
type Service interface {
	Request(ctx context.Context, requesterID, ownerID id.UserID) (*visibility.Grant, error)
	Respond(ctx context.Context, callerID, ownerID, requesterID id.UserID, decision visibility.Decision) (*visibility.Grant, error)
	CanView(ctx context.Context, requesterID, ownerID id.UserID) (bool, error)
	ListPending(ctx context.Context, ownerID id.UserID) ([]*visibility.Grant, error)
}

// Handler serves the photo visibility endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/visibility/requests", h.handleRequest)
	r.Get("/visibility/requests", h.handleListPending)
	r.Post("/visibility/requests/respond", h.handleRespond)
	r.Get("/visibility/check", h.handleCanView)
}

type grantResponse struct {
	OwnerID     string    `json:"owner_id"`
	RequesterID string    `json:"requester_id"`
	State       string    `json:"state"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toGrantResponse(grant *visibility.Grant) grantResponse {
	return grantResponse{
		OwnerID:     grant.OwnerID.String(),
		RequesterID: grant.RequesterID.String(),
		State:       string(grant.State),
		UpdatedAt:   grant.UpdatedAt,
	}
}

type visibilityRequest struct {
	OwnerID string `json:"owner_id"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	ownerID, err := id.ParseUserID(req.OwnerID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "owner_id must be a valid user id"))
		return
	}

	grant, err := h.service.Request(ctx, callerID, ownerID)
	if err != nil {
		h.logger.WarnContext(ctx, "visibility request failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toGrantResponse(grant))
}

type respondVisibilityRequest struct {
	RequesterID string `json:"requester_id"`
	Decision    string `json:"decision"`
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req respondVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	requesterID, err := id.ParseUserID(req.RequesterID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "requester_id must be a valid user id"))
		return
	}
	decision, err := visibility.ParseDecision(req.Decision)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "decision must be approve, auto_approve or reject"))
		return
	}

	grant, err := h.service.Respond(ctx, callerID, callerID, requesterID, decision)
	if err != nil {
		h.logger.WarnContext(ctx, "visibility respond failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toGrantResponse(grant))
}

func (h *Handler) handleCanView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	ownerID, err := id.ParseUserID(r.URL.Query().Get("owner_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "owner_id must be a valid user id"))
		return
	}

	canView, err := h.service.CanView(ctx, callerID, ownerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"can_view": canView})
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	grants, err := h.service.ListPending(ctx, callerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]grantResponse, 0, len(grants))
	for _, grant := range grants {
		out = append(out, toGrantResponse(grant))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

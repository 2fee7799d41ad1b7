package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kesher/internal/profileedit"
	id "kesher/pkg/domain"
	dErrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/httputil"
	"kesher/pkg/requestcontext"
)

// Service defines the profile edit operations the transport layer needs.
type Service interface {
	Submit(ctx context.Context, userID id.UserID, fields map[string]json.RawMessage) (*profileedit.EditRequest, error)
	Approve(ctx context.Context, reqID id.EditRequestID) error
	Reject(ctx context.Context, reqID id.EditRequestID, reason string) error
	Pending(ctx context.Context, userID id.UserID) (*profileedit.EditRequest, error)
	List(ctx context.Context) ([]*profileedit.EditRequest, error)
}

// Handler serves the profile edit moderation endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the user-facing edit routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/profile/edits", h.handleSubmit)
	r.Get("/profile/edits", h.handlePending)
}

// RegisterAdmin mounts the moderation routes. The router guards them with the
// admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/profile-edits", h.handleList)
	r.Post("/profile-edits/{requestID}/approve", h.handleApprove)
	r.Post("/profile-edits/{requestID}/reject", h.handleReject)
}

type editResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Changes     json.RawMessage `json:"changes"`
	IsSensitive bool            `json:"is_sensitive"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

func toEditResponse(req *profileedit.EditRequest) (editResponse, error) {
	changes, err := json.Marshal(req.Changes)
	if err != nil {
		return editResponse{}, err
	}
	return editResponse{
		ID:          req.ID.String(),
		UserID:      req.UserID.String(),
		Changes:     changes,
		IsSensitive: req.IsSensitive,
		SubmittedAt: req.SubmittedAt,
	}, nil
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	req, err := h.service.Submit(ctx, callerID, fields)
	if err != nil {
		h.logger.WarnContext(ctx, "profile edit submit failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	resp, err := toEditResponse(req)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to encode response"))
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	req, err := h.service.Pending(ctx, callerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp, err := toEditResponse(req)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to encode response"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqs, err := h.service.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]editResponse, 0, len(reqs))
	for _, req := range reqs {
		resp, err := toEditResponse(req)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to encode response"))
			return
		}
		out = append(out, resp)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID, err := id.ParseEditRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request id"))
		return
	}

	if err := h.service.Approve(ctx, reqID); err != nil {
		h.logger.WarnContext(ctx, "profile edit approve failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID, err := id.ParseEditRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request id"))
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.service.Reject(ctx, reqID, req.Reason); err != nil {
		h.logger.WarnContext(ctx, "profile edit reject failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kesher/internal/connection"
	id "kesher/pkg/domain"
	dErrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/httputil"
	"kesher/pkg/requestcontext"
)

// Service defines the connection operations the transport layer needs.
type Service interface {
	Request(ctx context.Context, senderID, targetID id.UserID) (*connection.Connection, error)
	Respond(ctx context.Context, callerID id.UserID, connID id.ConnectionID, decision connection.Decision) (*connection.Connection, error)
	FinalApprove(ctx context.Context, callerID id.UserID, connID id.ConnectionID) (*connection.Connection, error)
	Get(ctx context.Context, callerID id.UserID, connID id.ConnectionID) (*connection.Connection, error)
	ListForUser(ctx context.Context, userID id.UserID) ([]*connection.Connection, error)
}

// Handler serves the connection endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the connection routes. The router has already applied the
// platform middleware chain including authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/connections", h.handleRequest)
	r.Get("/connections", h.handleList)
	r.Get("/connections/{connectionID}", h.handleGet)
	r.Post("/connections/{connectionID}/respond", h.handleRespond)
	r.Post("/connections/{connectionID}/final-approval", h.handleFinalApprove)
}

type requestConnectionRequest struct {
	TargetID string `json:"target_id"`
}

type connectionResponse struct {
	ID                   string    `json:"id"`
	SenderID             string    `json:"sender_id"`
	ReceiverID           string    `json:"receiver_id"`
	Status               string    `json:"status"`
	SenderFinalApprove   bool      `json:"sender_final_approve"`
	ReceiverFinalApprove bool      `json:"receiver_final_approve"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toConnectionResponse(conn *connection.Connection) connectionResponse {
	return connectionResponse{
		ID:                   conn.ID.String(),
		SenderID:             conn.SenderID.String(),
		ReceiverID:           conn.ReceiverID.String(),
		Status:               string(conn.Status),
		SenderFinalApprove:   conn.SenderFinalApprove,
		ReceiverFinalApprove: conn.ReceiverFinalApprove,
		CreatedAt:            conn.CreatedAt,
		UpdatedAt:            conn.UpdatedAt,
	}
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req requestConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	targetID, err := id.ParseUserID(req.TargetID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "target_id must be a valid user id"))
		return
	}

	conn, err := h.service.Request(ctx, callerID, targetID)
	if err != nil {
		h.logger.WarnContext(ctx, "connection request failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toConnectionResponse(conn))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	conns, err := h.service.ListForUser(ctx, callerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]connectionResponse, 0, len(conns))
	for _, conn := range conns {
		out = append(out, toConnectionResponse(conn))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"connections": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	connID, err := id.ParseConnectionID(chi.URLParam(r, "connectionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid connection id"))
		return
	}

	conn, err := h.service.Get(ctx, callerID, connID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConnectionResponse(conn))
}

type respondRequest struct {
	Decision string `json:"decision"`
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	connID, err := id.ParseConnectionID(chi.URLParam(r, "connectionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid connection id"))
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	decision, err := connection.ParseDecision(req.Decision)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "decision must be approve or reject"))
		return
	}

	conn, err := h.service.Respond(ctx, callerID, connID, decision)
	if err != nil {
		h.logger.WarnContext(ctx, "connection respond failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConnectionResponse(conn))
}

func (h *Handler) handleFinalApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.UserID(ctx)
	if callerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	connID, err := id.ParseConnectionID(chi.URLParam(r, "connectionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid connection id"))
		return
	}

	conn, err := h.service.FinalApprove(ctx, callerID, connID)
	if err != nil {
		h.logger.WarnContext(ctx, "final approval failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConnectionResponse(conn))
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kesher/internal/connection"
	"kesher/internal/shadchan"
	"kesher/internal/user"
	id "kesher/pkg/domain"
	dErrors "kesher/pkg/domain-errors"
	"kesher/pkg/platform/httputil"
	"kesher/pkg/requestcontext"
)

// Service defines the handoff operations the transport layer needs.
type Service interface {
	ListReadyCases(ctx context.Context) ([]*shadchan.Case, error)
	MarkHandled(ctx context.Context, connID id.ConnectionID) (*connection.Connection, error)
}

// Handler serves the shadchan case queue. The router guards every route with
// the admin middleware chain.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/cases", h.handleListCases)
	r.Post("/cases/{connectionID}/handled", h.handleMarkHandled)
}

type caseResponse struct {
	ConnectionID string           `json:"connection_id"`
	MatchedAt    time.Time        `json:"matched_at"`
	Sender       user.ContactCard `json:"sender"`
	Receiver     user.ContactCard `json:"receiver"`
}

func (h *Handler) handleListCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cases, err := h.service.ListReadyCases(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list shadchan cases",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	out := make([]caseResponse, 0, len(cases))
	for _, c := range cases {
		out = append(out, caseResponse{
			ConnectionID: c.ConnectionID.String(),
			MatchedAt:    c.MatchedAt,
			Sender:       c.Sender,
			Receiver:     c.Receiver,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cases": out})
}

func (h *Handler) handleMarkHandled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	connID, err := id.ParseConnectionID(chi.URLParam(r, "connectionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid connection id"))
		return
	}

	conn, err := h.service.MarkHandled(ctx, connID)
	if err != nil {
		h.logger.WarnContext(ctx, "mark handled failed",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"connection_id": conn.ID.String(),
		"status":        string(conn.Status),
	})
}

package ticket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/auth"
	"github.com/solatech/solar-commerce/internal/core/datamodel/ticket"
	"github.com/solatech/solar-commerce/internal/transport"
	"github.com/solatech/solar-commerce/pkg/logger"
)

type ServiceAPI interface {
	Create(userID int64, req *CreateTicketRequest) (*ticket.SupportTicket, error)
	GetTicket(id, userID int64, isAdmin bool) (*ticket.SupportTicket, error)
	GetUserTickets(userID int64, limit, offset int) ([]*ticket.SupportTicket, error)
	ListAll(status string, limit, offset int) ([]*ticket.SupportTicket, error)
	Respond(id int64, req *RespondRequest) (*ticket.SupportTicket, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// CreateTicket handles POST /api/v1/tickets
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	t, err := h.Service.Create(user.ID, &req)
	if err != nil {
		h.Logger.Error("CreateTicket: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateTicket: ticket opened", "ticket_id", t.ID, "user_id", user.ID)
	h.WriteJSON(w, http.StatusCreated, ToView(t))
}

// GetTicket handles GET /api/v1/tickets/{id}
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid ticket ID", apperrors.ErrCodeValidationFailed))
		return
	}

	t, err := h.Service.GetTicket(id, user.ID, user.IsAdmin())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(t))
}

// ListTickets handles GET /api/v1/tickets
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tickets, err := h.Service.GetUserTickets(user.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tickets": ToViews(tickets),
	})
}

// ListAllTickets handles GET /api/v1/admin/tickets
func (h *Handler) ListAllTickets(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := r.URL.Query().Get("status")

	tickets, err := h.Service.ListAll(status, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tickets": ToViews(tickets),
	})
}

// RespondTicket handles PATCH /api/v1/admin/tickets/{id}
func (h *Handler) RespondTicket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid ticket ID", apperrors.ErrCodeValidationFailed))
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	t, err := h.Service.Respond(id, &req)
	if err != nil {
		h.Logger.Error("RespondTicket: service error", "error", err, "ticket_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RespondTicket: ticket answered", "ticket_id", id, "status", t.Status)
	h.WriteJSON(w, http.StatusOK, ToView(t))
}

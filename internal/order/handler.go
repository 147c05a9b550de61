package order

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/auth"
	"github.com/solatech/solar-commerce/internal/core/datamodel/order"
	"github.com/solatech/solar-commerce/internal/transport"
	"github.com/solatech/solar-commerce/pkg/logger"
)

type ServiceAPI interface {
	Checkout(ctx context.Context, userID int64, req *CheckoutRequest) (*CheckoutResponse, error)
	GetOrder(id, userID int64, isAdmin bool) (*order.Order, error)
	GetUserOrders(userID int64, limit, offset int) ([]*order.Order, error)
	UpdateStatus(id int64, req *UpdateStatusRequest) error
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

// Checkout handles POST /api/v1/orders/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.Checkout(r.Context(), user.ID, &req)
	if err != nil {
		h.Logger.Error("Checkout: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Checkout: order placed",
		"order_id", resp.Order.ID,
		"user_id", user.ID,
		"total", resp.Order.Total)

	h.WriteJSON(w, http.StatusCreated, resp)
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid order ID", apperrors.ErrCodeValidationFailed))
		return
	}

	o, err := h.Service.GetOrder(id, user.ID, user.IsAdmin())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(o))
}

// ListOrders handles GET /api/v1/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.Service.GetUserOrders(user.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, ToView(o))
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orders": views,
	})
}

// UpdateStatus handles PATCH /api/v1/admin/orders/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid order ID", apperrors.ErrCodeValidationFailed))
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.UpdateStatus(id, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

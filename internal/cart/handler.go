package cart

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/auth"
	"github.com/solatech/solar-commerce/internal/transport"
	"github.com/solatech/solar-commerce/pkg/logger"
)

type ServiceAPI interface {
	AddItem(userID int64, req *AddItemRequest) error
	GetCart(userID int64) (*CartView, error)
	UpdateQuantity(userID, productID int64, quantity int) error
	RemoveItem(userID, productID int64) error
	Clear(userID int64) error
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

// GetCart handles GET /api/v1/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	view, err := h.Service.GetCart(user.ID)
	if err != nil {
		h.Logger.Error("GetCart: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

// AddItem handles POST /api/v1/cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.AddItem(user.ID, &req); err != nil {
		h.Logger.Error("AddItem: service error", "error", err, "user_id", user.ID, "product_id", req.ProductID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// UpdateItem handles PATCH /api/v1/cart/items/{productID}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid product ID", apperrors.ErrCodeValidationFailed))
		return
	}

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.UpdateQuantity(user.ID, productID, req.Quantity); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid product ID", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.RemoveItem(user.ID, productID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.Clear(user.ID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

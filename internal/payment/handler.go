package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/auth"
	"github.com/solatech/solar-commerce/internal/core/datamodel/transaction"
	"github.com/solatech/solar-commerce/internal/transport"
)

type ServiceAPI interface {
	Initiate(ctx context.Context, userID int64, req *InitiatePaymentRequest) (*InitiatePaymentResponse, error)
	GetTransaction(id, userID int64, isAdmin bool) (*transaction.Transaction, error)
	GetUserTransactions(userID int64, limit, offset int) ([]*transaction.Transaction, error)
}

type Handler struct {
	transport.BaseHandler
	Service ServiceAPI
	Logger  *slog.Logger
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: *transport.NewBaseHandler(logger),
		Service:     service,
		Logger:      logger,
	}
}

// InitiatePayment handles POST /api/v1/payments/stkpush
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("InitiatePayment: user not found in context")
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("InitiatePayment: failed to parse request body", "error", err)
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.Initiate(r.Context(), user.ID, &req)
	if err != nil {
		h.Logger.Error("InitiatePayment: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("InitiatePayment: stk push accepted",
		"user_id", user.ID,
		"transaction_id", resp.TransactionID,
		"checkout_request_id", resp.CheckoutRequestID)

	h.WriteJSON(w, http.StatusAccepted, resp)
}

// GetTransaction handles GET /api/v1/payments/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid transaction ID", apperrors.ErrCodeValidationFailed))
		return
	}

	txn, err := h.Service.GetTransaction(id, user.ID, user.IsAdmin())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(txn))
}

// ListTransactions handles GET /api/v1/payments
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	limit, offset := paginationParams(r)

	txns, err := h.Service.GetUserTransactions(user.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	views := make([]TransactionView, 0, len(txns))
	for _, txn := range txns {
		views = append(views, ToView(txn))
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": views,
		"limit":        limit,
		"offset":       offset,
	})
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

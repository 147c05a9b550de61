package order

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/cart"
	"github.com/solatech/solar-commerce/internal/core/datamodel/order"
	"github.com/solatech/solar-commerce/internal/payment"
)

type Repository interface {
	Create(o *order.Order) error
	GetByID(id int64) (*order.Order, error)
	GetByCustomerID(customerID int64, limit, offset int) ([]*order.Order, error)
	UpdateStatus(id int64, status string) error
}

type CartAPI interface {
	GetCart(userID int64) (*cart.CartView, error)
	Clear(userID int64) error
}

type StockAPI interface {
	DecrementStock(productID int64, quantity int) error
	RestoreStock(productID int64, quantity int) error
}

type PaymentInitiatorAPI interface {
	Initiate(ctx context.Context, userID int64, req *payment.InitiatePaymentRequest) (*payment.InitiatePaymentResponse, error)
}

type Service struct {
	repo     Repository
	cart     CartAPI
	stock    StockAPI
	payments PaymentInitiatorAPI
	logger   *slog.Logger
}

func NewService(repo Repository, cartSvc CartAPI, stock StockAPI, payments PaymentInitiatorAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cart:     cartSvc,
		stock:    stock,
		payments: payments,
		logger:   logger,
	}
}

// Checkout converts the customer's cart into a pending order, reserves
// stock, clears the cart and starts an STK push for the order total. The
// order stays pending until the payment callback settles it.
func (s *Service) Checkout(ctx context.Context, userID int64, req *CheckoutRequest) (*CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cartView, err := s.cart.GetCart(userID)
	if err != nil {
		return nil, err
	}
	if len(cartView.Items) == 0 {
		return nil, apperrors.ErrCartEmpty
	}

	// Reservations are per-product guarded updates, so a failure partway
	// through leaves earlier decrements applied. Those are handed back
	// before the error surfaces.
	reserved := make([]cart.ItemView, 0, len(cartView.Items))
	for _, item := range cartView.Items {
		if err := s.stock.DecrementStock(item.ProductID, item.Quantity); err != nil {
			s.logger.Error("checkout: stock reservation failed",
				"error", err,
				"user_id", userID,
				"product_id", item.ProductID,
				"quantity", item.Quantity)
			s.releaseStock(reserved, userID)
			return nil, err
		}
		reserved = append(reserved, item)
	}

	o := &order.Order{
		CustomerID: userID,
		Status:     order.StatusPending,
		Total:      cartView.Total,
	}
	for _, item := range cartView.Items {
		o.Items = append(o.Items, order.OrderItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.Price,
			TotalPrice: item.Subtotal,
		})
	}

	if err := s.repo.Create(o); err != nil {
		s.releaseStock(reserved, userID)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.cart.Clear(userID); err != nil {
		s.logger.Warn("checkout: failed to clear cart", "error", err, "user_id", userID)
	}

	s.logger.Info("order created",
		"order_id", o.ID,
		"user_id", userID,
		"total", o.Total,
		"items", len(o.Items))

	payResp, err := s.payments.Initiate(ctx, userID, &payment.InitiatePaymentRequest{
		Phone:   req.Phone,
		Amount:  o.Total,
		OrderID: &o.ID,
	})
	if err != nil {
		// The order survives a failed initiation so the customer can retry
		// payment against it instead of rebuilding the cart.
		s.logger.Error("checkout: payment initiation failed",
			"error", err,
			"order_id", o.ID,
			"user_id", userID)
		return &CheckoutResponse{Order: ToView(o)}, err
	}

	return &CheckoutResponse{
		Order:   ToView(o),
		Payment: payResp,
	}, nil
}

// releaseStock returns reserved units after an aborted checkout. Failures
// here are logged, not returned: the caller is already on an error path and
// the log line identifies the row an operator has to correct.
func (s *Service) releaseStock(reserved []cart.ItemView, userID int64) {
	for _, item := range reserved {
		if err := s.stock.RestoreStock(item.ProductID, item.Quantity); err != nil {
			s.logger.Error("checkout: failed to restore reserved stock",
				"error", err,
				"user_id", userID,
				"product_id", item.ProductID,
				"quantity", item.Quantity)
		}
	}
}

func (s *Service) GetOrder(id, userID int64, isAdmin bool) (*order.Order, error) {
	o, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.CustomerID != userID {
		return nil, apperrors.ErrUnauthorizedAccess
	}
	return o, nil
}

func (s *Service) GetUserOrders(userID int64, limit, offset int) ([]*order.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetByCustomerID(userID, limit, offset)
}

// UpdateStatus moves a paid order through fulfillment. Only two transitions
// exist: paid to shipped, and shipped to delivered.
func (s *Service) UpdateStatus(id int64, req *UpdateStatusRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	o, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	allowed := (o.Status == order.StatusPaid && req.Status == order.StatusShipped) ||
		(o.Status == order.StatusShipped && req.Status == order.StatusDelivered)
	if !allowed {
		return apperrors.NewValidationError(
			fmt.Sprintf("cannot move order from %s to %s", o.Status, req.Status),
			apperrors.ErrCodeValidationFailed)
	}

	return s.repo.UpdateStatus(id, req.Status)
}

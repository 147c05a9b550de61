package order

import (
	"time"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/common/validation"
	"github.com/solatech/solar-commerce/internal/core/datamodel/order"
	"github.com/solatech/solar-commerce/internal/payment"
)

// CheckoutRequest turns the caller's cart into an order and starts payment
// for it. Phone is the MSISDN that receives the STK prompt.
type CheckoutRequest struct {
	Phone string `json:"phone"`
}

func (r *CheckoutRequest) Validate() error {
	v := validation.NewValidator()
	v.Field("phone", r.Phone).Required().Phone()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type CheckoutResponse struct {
	Order   OrderView                        `json:"order"`
	Payment *payment.InitiatePaymentResponse `json:"payment,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	switch r.Status {
	case order.StatusShipped, order.StatusDelivered:
		return nil
	default:
		return apperrors.NewValidationError("status must be shipped or delivered", apperrors.ErrCodeValidationFailed)
	}
}

type OrderView struct {
	ID        int64      `json:"id"`
	Status    string     `json:"status"`
	Total     float64    `json:"total"`
	Items     []ItemView `json:"items"`
	CreatedAt string     `json:"created_at"`
}

type ItemView struct {
	ProductID  int64   `json:"product_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

func ToView(o *order.Order) OrderView {
	items := make([]ItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemView{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return OrderView{
		ID:        o.ID,
		Status:    o.Status,
		Total:     o.Total,
		Items:     items,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

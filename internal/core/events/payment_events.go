package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentInitiated = "payment.initiated"
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
)

type PaymentInitiatedEvent struct {
	BaseEvent
	TransactionID     int64   `json:"transaction_id"`
	OrderID           *int64  `json:"order_id,omitempty"`
	UserID            int64   `json:"user_id"`
	CheckoutRequestID string  `json:"checkout_request_id"`
	Phone             string  `json:"phone"`
	Amount            float64 `json:"amount"`
}

func NewPaymentInitiatedEvent(transactionID int64, orderID *int64, userID int64, checkoutRequestID, phone string, amount float64) *PaymentInitiatedEvent {
	return &PaymentInitiatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentInitiated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"transaction_id":      transactionID,
				"order_id":            orderID,
				"user_id":             userID,
				"checkout_request_id": checkoutRequestID,
				"phone":               phone,
				"amount":              amount,
			},
		},
		TransactionID:     transactionID,
		OrderID:           orderID,
		UserID:            userID,
		CheckoutRequestID: checkoutRequestID,
		Phone:             phone,
		Amount:            amount,
	}
}

type PaymentCompletedEvent struct {
	BaseEvent
	TransactionID     int64   `json:"transaction_id"`
	OrderID           *int64  `json:"order_id,omitempty"`
	CheckoutRequestID string  `json:"checkout_request_id"`
	Amount            float64 `json:"amount"`
	MpesaReceipt      string  `json:"mpesa_receipt,omitempty"`
}

func NewPaymentCompletedEvent(transactionID int64, orderID *int64, checkoutRequestID string, amount float64, mpesaReceipt string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"transaction_id":      transactionID,
				"order_id":            orderID,
				"checkout_request_id": checkoutRequestID,
				"amount":              amount,
				"mpesa_receipt":       mpesaReceipt,
			},
		},
		TransactionID:     transactionID,
		OrderID:           orderID,
		CheckoutRequestID: checkoutRequestID,
		Amount:            amount,
		MpesaReceipt:      mpesaReceipt,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	TransactionID     int64   `json:"transaction_id"`
	OrderID           *int64  `json:"order_id,omitempty"`
	CheckoutRequestID string  `json:"checkout_request_id"`
	Amount            float64 `json:"amount"`
	ResultCode        string  `json:"result_code"`
	ResultDesc        string  `json:"result_desc"`
}

func NewPaymentFailedEvent(transactionID int64, orderID *int64, checkoutRequestID string, amount float64, resultCode, resultDesc string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"transaction_id":      transactionID,
				"order_id":            orderID,
				"checkout_request_id": checkoutRequestID,
				"amount":              amount,
				"result_code":         resultCode,
				"result_desc":         resultDesc,
			},
		},
		TransactionID:     transactionID,
		OrderID:           orderID,
		CheckoutRequestID: checkoutRequestID,
		Amount:            amount,
		ResultCode:        resultCode,
		ResultDesc:        resultDesc,
	}
}

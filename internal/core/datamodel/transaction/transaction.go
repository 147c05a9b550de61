package transaction

import (
	"encoding/json"
	"time"
)

// Transaction is one payment attempt against the mobile-money gateway. A row
// exists only after the provider accepted the initiation request, so
// CheckoutRequestID is always set on persisted rows and is the join key for
// the asynchronous result callback.
type Transaction struct {
	ID                int64           `gorm:"primaryKey"`
	UserID            int64           `gorm:"column:user_id;not null;index"`
	OrderID           *int64          `gorm:"column:order_id;index"`
	Phone             string          `gorm:"column:phone;not null"`
	Amount            float64         `gorm:"column:amount;not null"`
	CheckoutRequestID *string         `gorm:"column:checkout_request_id;uniqueIndex"`
	MerchantRequestID *string         `gorm:"column:merchant_request_id"`
	MpesaReceipt      *string         `gorm:"column:mpesa_receipt"`
	ResultCode        *string         `gorm:"column:result_code"`
	ResultDesc        *string         `gorm:"column:result_desc"`
	Status            string          `gorm:"column:status;default:pending"`
	GatewayResponse   json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	CreatedAt         time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Transaction) TableName() string {
	return "transactions"
}

const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// IsTerminal reports whether the transaction already has a final outcome.
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}

// UnmatchedCallback records a provider notification that could not be applied
// to any pending transaction, so reconciliation backlogs stay observable
// instead of being silently dropped.
type UnmatchedCallback struct {
	ID                int64           `gorm:"primaryKey"`
	CheckoutRequestID string          `gorm:"column:checkout_request_id;index"`
	MerchantRequestID string          `gorm:"column:merchant_request_id"`
	ResultCode        string          `gorm:"column:result_code"`
	ResultDesc        string          `gorm:"column:result_desc"`
	Reason            string          `gorm:"column:reason;not null"`
	Payload           json.RawMessage `gorm:"column:payload;type:jsonb"`
	CreatedAt         time.Time       `gorm:"column:created_at;default:now()"`
}

func (UnmatchedCallback) TableName() string {
	return "unmatched_callbacks"
}

const (
	UnmatchedReasonNoTransaction = "no_matching_transaction"
	UnmatchedReasonConflict      = "conflicting_terminal_outcome"
)

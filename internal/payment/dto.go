package payment

import (
	"encoding/json"
	"strconv"

	errors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/common/validation"
)

// InitiatePaymentRequest is the request payload for starting an STK push.
// OrderID is optional: checkout-triggered payments carry the order they pay
// for, direct payments do not.
type InitiatePaymentRequest struct {
	Phone   string  `json:"phone"`
	Amount  float64 `json:"amount"`
	OrderID *int64  `json:"order_id,omitempty"`
}

func (r *InitiatePaymentRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("phone", r.Phone).Required().Phone()
	validator.Field("amount", r.Amount).Required().Positive(errors.ErrCodeInvalidAmount)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// InitiatePaymentResponse is the synchronous acknowledgment returned to the
// caller; the payment outcome arrives later via the callback.
type InitiatePaymentResponse struct {
	TransactionID       int64  `json:"transaction_id"`
	CheckoutRequestID   string `json:"checkout_request_id"`
	MerchantRequestID   string `json:"merchant_request_id"`
	ResponseDescription string `json:"response_description"`
	CustomerMessage     string `json:"customer_message"`
}

// ResultCode is the provider's outcome code, normalized to a single typed
// representation at the parse boundary. The provider serializes it sometimes
// as a JSON number and sometimes as a string; nothing past the parser should
// compare mixed representations.
type ResultCode string

const ResultCodeSuccess ResultCode = "0"

func (rc ResultCode) IsSuccess() bool {
	return rc == ResultCodeSuccess
}

func (rc ResultCode) String() string {
	return string(rc)
}

// CallbackEnvelope is the provider's nested notification body:
// { Body: { stkCallback: {...} } }.
type CallbackEnvelope struct {
	Body struct {
		StkCallback *StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        json.Number       `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// Result returns the normalized outcome code.
func (cb *StkCallback) Result() ResultCode {
	return ResultCode(cb.ResultCode.String())
}

// ConfirmedDetails pulls the payer-confirmed amount, phone and receipt out
// of the Name/Value metadata list. Items are only present on success and any
// of them may be missing.
func (cb *StkCallback) ConfirmedDetails() (amount *float64, phone *string, receipt *string) {
	if cb.CallbackMetadata == nil {
		return nil, nil, nil
	}

	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			if v, ok := toFloat(item.Value); ok {
				amount = &v
			}
		case "PhoneNumber":
			if v, ok := toString(item.Value); ok {
				phone = &v
			}
		case "MpesaReceiptNumber":
			if v, ok := toString(item.Value); ok {
				receipt = &v
			}
		}
	}
	return amount, phone, receipt
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func toString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case json.Number:
		return s.String(), true
	}
	return "", false
}

// CallbackAck is the body returned to the provider. The provider retries on
// non-2xx responses, so even rejected deliveries are acknowledged with HTTP
// 200 and a non-zero ResultCode.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

type TransactionView struct {
	ID                int64    `json:"id"`
	OrderID           *int64   `json:"order_id,omitempty"`
	Phone             string   `json:"phone"`
	Amount            float64  `json:"amount"`
	CheckoutRequestID *string  `json:"checkout_request_id,omitempty"`
	MerchantRequestID *string  `json:"merchant_request_id,omitempty"`
	MpesaReceipt      *string  `json:"mpesa_receipt,omitempty"`
	ResultCode        *string  `json:"result_code,omitempty"`
	ResultDesc        *string  `json:"result_desc,omitempty"`
	Status            string   `json:"status"`
	CreatedAt         string   `json:"created_at"`
}

package payment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/solatech/solar-commerce/internal/transport"
)

// ReconcilerAPI is the slice of the payment service the webhook needs.
type ReconcilerAPI interface {
	Reconcile(ctx context.Context, cb *StkCallback, rawPayload json.RawMessage) error
}

type WebhookHandler struct {
	*transport.BaseHandler
	reconciler ReconcilerAPI
	logger     *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, reconciler ReconcilerAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		reconciler:  reconciler,
		logger:      logger,
	}
}

// HandleStkCallback handles POST /api/v1/payments/callback. The provider
// retries deliveries that are not acknowledged with HTTP 200, so every path
// out of this handler returns 200; the ack body distinguishes accepted from
// rejected payloads.
func (h *WebhookHandler) HandleStkCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read callback body", "error", err)
		h.writeAck(w, CallbackAck{ResultCode: 1, ResultDesc: "Rejected"})
		return
	}

	var envelope CallbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.Error("malformed callback payload", "error", err)
		h.writeAck(w, CallbackAck{ResultCode: 1, ResultDesc: "Rejected"})
		return
	}

	cb := envelope.Body.StkCallback
	if cb == nil || cb.CheckoutRequestID == "" {
		h.logger.Error("callback payload missing stkCallback body")
		h.writeAck(w, CallbackAck{ResultCode: 1, ResultDesc: "Rejected"})
		return
	}

	h.logger.Info("received stk callback",
		"checkout_request_id", cb.CheckoutRequestID,
		"merchant_request_id", cb.MerchantRequestID,
		"result_code", cb.ResultCode.String())

	if err := h.reconciler.Reconcile(r.Context(), cb, json.RawMessage(body)); err != nil {
		// Still acked with 200: a non-200 makes the provider retry against
		// the same storage failure. The error log is the recovery trail.
		h.logger.Error("failed to reconcile callback",
			"error", err,
			"checkout_request_id", cb.CheckoutRequestID)
	}

	h.writeAck(w, CallbackAck{ResultCode: 0, ResultDesc: "Accepted"})
}

func (h *WebhookHandler) writeAck(w http.ResponseWriter, ack CallbackAck) {
	h.WriteJSON(w, http.StatusOK, ack)
}

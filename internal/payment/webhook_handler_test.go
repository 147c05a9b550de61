package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	paymentPkg "github.com/solatech/solar-commerce/internal/payment"
	"github.com/solatech/solar-commerce/internal/transport"
)

type mockReconciler struct {
	reconcileError error
	received       []*paymentPkg.StkCallback
	payloads       []json.RawMessage
}

func (m *mockReconciler) Reconcile(ctx context.Context, cb *paymentPkg.StkCallback, rawPayload json.RawMessage) error {
	m.received = append(m.received, cb)
	m.payloads = append(m.payloads, rawPayload)
	return m.reconcileError
}

func callbackBody(checkoutRequestID string, resultCode interface{}) []byte {
	body := map[string]interface{}{
		"Body": map[string]interface{}{
			"stkCallback": map[string]interface{}{
				"MerchantRequestID": "merchant-1",
				"CheckoutRequestID": checkoutRequestID,
				"ResultCode":        resultCode,
				"ResultDesc":        "The service request is processed successfully.",
			},
		},
	}
	raw, _ := json.Marshal(body)
	return raw
}

var _ = Describe("WebhookHandler", func() {
	var (
		handler    *paymentPkg.WebhookHandler
		reconciler *mockReconciler
		recorder   *httptest.ResponseRecorder
	)

	post := func(body []byte) paymentPkg.CallbackAck {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewReader(body))
		handler.HandleStkCallback(recorder, req)

		Expect(recorder.Code).To(Equal(http.StatusOK))

		var ack paymentPkg.CallbackAck
		Expect(json.Unmarshal(recorder.Body.Bytes(), &ack)).To(Succeed())
		return ack
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		reconciler = &mockReconciler{}
		handler = paymentPkg.NewWebhookHandler(transport.NewBaseHandler(logger), reconciler, logger)
		recorder = httptest.NewRecorder()
	})

	Context("when a well formed callback arrives", func() {
		It("should accept it and pass the raw payload to reconciliation", func() {
			body := callbackBody("ws_CO_123", 0)

			ack := post(body)

			Expect(ack.ResultCode).To(Equal(0))
			Expect(ack.ResultDesc).To(Equal("Accepted"))
			Expect(reconciler.received).To(HaveLen(1))
			Expect(reconciler.received[0].CheckoutRequestID).To(Equal("ws_CO_123"))
			Expect(reconciler.payloads[0]).To(Equal(json.RawMessage(body)))
		})

		It("should accept a string result code the same as a numeric one", func() {
			ack := post(callbackBody("ws_CO_123", "1032"))

			Expect(ack.ResultCode).To(Equal(0))
			Expect(reconciler.received[0].Result().String()).To(Equal("1032"))
		})
	})

	Context("when the payload is malformed", func() {
		It("should reject non-JSON bodies without reconciling", func() {
			ack := post([]byte("not json"))

			Expect(ack.ResultCode).To(Equal(1))
			Expect(ack.ResultDesc).To(Equal("Rejected"))
			Expect(reconciler.received).To(BeEmpty())
		})

		It("should reject an envelope without an stkCallback body", func() {
			ack := post([]byte(`{"Body":{}}`))

			Expect(ack.ResultCode).To(Equal(1))
			Expect(reconciler.received).To(BeEmpty())
		})

		It("should reject a callback missing the checkout request id", func() {
			ack := post(callbackBody("", 0))

			Expect(ack.ResultCode).To(Equal(1))
			Expect(reconciler.received).To(BeEmpty())
		})
	})

	Context("when reconciliation fails", func() {
		It("should still acknowledge with HTTP 200 and an accepted body", func() {
			reconciler.reconcileError = errors.New("database down")

			ack := post(callbackBody("ws_CO_123", 0))

			Expect(ack.ResultCode).To(Equal(0))
			Expect(ack.ResultDesc).To(Equal("Accepted"))
		})
	})
})

package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/datamodel/transaction"
	"github.com/solatech/solar-commerce/internal/mpesagateway"
	paymentPkg "github.com/solatech/solar-commerce/internal/payment"
)

// Mock repository for testing
type mockTransactionRepository struct {
	transactions   map[string]*transaction.Transaction
	unmatched      []*transaction.UnmatchedCallback
	nextID         int64
	createError    error
	getError       error
	applyError     error
	applyLoses     bool
	unmatchedError error
}

func newMockTransactionRepository() *mockTransactionRepository {
	return &mockTransactionRepository{
		transactions: make(map[string]*transaction.Transaction),
		nextID:       1,
	}
}

func (m *mockTransactionRepository) CreatePending(txn *transaction.Transaction) error {
	if m.createError != nil {
		return m.createError
	}
	txn.ID = m.nextID
	m.nextID++
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = time.Now()
	m.transactions[*txn.CheckoutRequestID] = txn
	return nil
}

func (m *mockTransactionRepository) GetByID(id int64) (*transaction.Transaction, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, txn := range m.transactions {
		if txn.ID == id {
			return txn, nil
		}
	}
	return nil, apperrors.ErrTransactionNotFound
}

func (m *mockTransactionRepository) GetByCheckoutRequestID(checkoutRequestID string) (*transaction.Transaction, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	txn, exists := m.transactions[checkoutRequestID]
	if !exists {
		return nil, apperrors.ErrTransactionNotFound
	}
	return txn, nil
}

func (m *mockTransactionRepository) GetByUserID(userID int64, limit, offset int) ([]*transaction.Transaction, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	var txns []*transaction.Transaction
	for _, txn := range m.transactions {
		if txn.UserID == userID {
			txns = append(txns, txn)
		}
	}
	return txns, nil
}

// ApplyResult mimics the storage-level compare-and-set: the update lands
// only while the row is still pending.
func (m *mockTransactionRepository) ApplyResult(checkoutRequestID string, result paymentPkg.ReconcileResult) (int64, error) {
	if m.applyError != nil {
		return 0, m.applyError
	}
	if m.applyLoses {
		return 0, nil
	}
	txn, exists := m.transactions[checkoutRequestID]
	if !exists || txn.Status != transaction.StatusPending {
		return 0, nil
	}
	txn.Status = result.Status
	txn.ResultCode = &result.ResultCode
	txn.ResultDesc = &result.ResultDesc
	if result.ConfirmedPhone != nil {
		txn.Phone = *result.ConfirmedPhone
	}
	txn.MpesaReceipt = result.Receipt
	txn.UpdatedAt = time.Now()
	return 1, nil
}

func (m *mockTransactionRepository) RecordUnmatched(cb *transaction.UnmatchedCallback) error {
	if m.unmatchedError != nil {
		return m.unmatchedError
	}
	m.unmatched = append(m.unmatched, cb)
	return nil
}

// Mock gateway for testing
type mockGateway struct {
	pushResponse *mpesagateway.STKPushResponse
	pushError    error
	pushCalls    int
}

func (m *mockGateway) STKPush(ctx context.Context, phone string, amount float64, accountReference string) (*mpesagateway.STKPushResponse, error) {
	m.pushCalls++
	if m.pushError != nil {
		return nil, m.pushError
	}
	return m.pushResponse, nil
}

func (m *mockGateway) AccountReference(userID int64, timestamp string) string {
	return "SOLAR-1-" + timestamp
}

func stkCallback(checkoutRequestID string, resultCode json.Number, items ...paymentPkg.MetadataItem) *paymentPkg.StkCallback {
	cb := &paymentPkg.StkCallback{
		MerchantRequestID: "merchant-1",
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        resultCode,
		ResultDesc:        "result",
	}
	if len(items) > 0 {
		cb.CallbackMetadata = &paymentPkg.CallbackMetadata{Item: items}
	}
	return cb
}

var _ = Describe("PaymentService", func() {
	var (
		service  *paymentPkg.Service
		mockRepo *mockTransactionRepository
		gateway  *mockGateway
		logger   *slog.Logger
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = newMockTransactionRepository()
		gateway = &mockGateway{
			pushResponse: &mpesagateway.STKPushResponse{
				MerchantRequestID:   "merchant-1",
				CheckoutRequestID:   "ws_CO_123",
				ResponseCode:        "0",
				ResponseDescription: "Success. Request accepted for processing",
				CustomerMessage:     "Success. Request accepted for processing",
			},
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()

		service = paymentPkg.NewService(mockRepo, gateway, nil, logger)
	})

	Describe("Initiate", func() {
		Context("when the request is valid", func() {
			It("should persist exactly one pending transaction", func() {
				req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 7500}

				resp, err := service.Initiate(ctx, 42, req)

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.CheckoutRequestID).To(Equal("ws_CO_123"))
				Expect(resp.TransactionID).To(BeNumerically(">", 0))
				Expect(mockRepo.transactions).To(HaveLen(1))

				txn := mockRepo.transactions["ws_CO_123"]
				Expect(txn.Status).To(Equal(transaction.StatusPending))
				Expect(txn.UserID).To(Equal(int64(42)))
				Expect(txn.Amount).To(Equal(7500.0))
				Expect(txn.GatewayResponse).ToNot(BeEmpty())
			})

			It("should carry the order reference when present", func() {
				orderID := int64(9)
				req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 100, OrderID: &orderID}

				_, err := service.Initiate(ctx, 42, req)

				Expect(err).ToNot(HaveOccurred())
				Expect(*mockRepo.transactions["ws_CO_123"].OrderID).To(Equal(orderID))
			})
		})

		Context("when validation fails", func() {
			It("should reject a non-positive amount without calling the gateway", func() {
				req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 0}

				resp, err := service.Initiate(ctx, 42, req)

				Expect(err).To(HaveOccurred())
				Expect(resp).To(BeNil())
				Expect(gateway.pushCalls).To(Equal(0))
				Expect(mockRepo.transactions).To(BeEmpty())
			})

			It("should reject a malformed phone number", func() {
				req := &paymentPkg.InitiatePaymentRequest{Phone: "0712", Amount: 100}

				_, err := service.Initiate(ctx, 42, req)

				Expect(err).To(HaveOccurred())
				Expect(gateway.pushCalls).To(Equal(0))
			})
		})

		Context("when the gateway fails", func() {
			It("should persist nothing on authentication failure", func() {
				gateway.pushError = &mpesagateway.AuthError{Cause: errors.New("bad credentials")}
				req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 100}

				resp, err := service.Initiate(ctx, 42, req)

				Expect(err).To(HaveOccurred())
				Expect(resp).To(BeNil())
				Expect(mockRepo.transactions).To(BeEmpty())

				var appErr *apperrors.AppError
				Expect(errors.As(err, &appErr)).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayAuthFailed))
			})

			It("should map network failures to an unreachable error", func() {
				gateway.pushError = &mpesagateway.NetworkError{Cause: errors.New("connection refused")}
				req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 100}

				_, err := service.Initiate(ctx, 42, req)

				var appErr *apperrors.AppError
				Expect(errors.As(err, &appErr)).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayUnreachable))
			})

			It("should map provider rejections to a gateway error", func() {
				gateway.pushError = &mpesagateway.GatewayError{StatusCode: 400, Code: "400.002.02", Message: "Bad Request"}
				req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 100}

				_, err := service.Initiate(ctx, 42, req)

				var appErr *apperrors.AppError
				Expect(errors.As(err, &appErr)).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayError))
			})
		})

		Context("when persistence fails after gateway acceptance", func() {
			It("should surface the checkout request id in the error", func() {
				mockRepo.createError = errors.New("database down")
				req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 100}

				resp, err := service.Initiate(ctx, 42, req)

				Expect(err).To(HaveOccurred())
				Expect(resp).To(BeNil())

				var appErr *apperrors.AppError
				Expect(errors.As(err, &appErr)).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodePersistenceFailed))
				Expect(appErr.Details).To(HaveKeyWithValue("checkout_request_id", "ws_CO_123"))
			})
		})
	})

	Describe("Reconcile", func() {
		var pending *transaction.Transaction

		BeforeEach(func() {
			req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 7500}
			_, err := service.Initiate(ctx, 42, req)
			Expect(err).ToNot(HaveOccurred())
			pending = mockRepo.transactions["ws_CO_123"]
		})

		Context("when a success callback arrives", func() {
			It("should transition the transaction and store confirmed details", func() {
				cb := stkCallback("ws_CO_123", json.Number("0"),
					paymentPkg.MetadataItem{Name: "Amount", Value: 7500.0},
					paymentPkg.MetadataItem{Name: "MpesaReceiptNumber", Value: "NLJ7RT61SV"},
					paymentPkg.MetadataItem{Name: "PhoneNumber", Value: 254712345678.0},
				)

				err := service.Reconcile(ctx, cb, json.RawMessage(`{}`))

				Expect(err).ToNot(HaveOccurred())
				Expect(pending.Status).To(Equal(transaction.StatusSuccess))
				Expect(*pending.MpesaReceipt).To(Equal("NLJ7RT61SV"))
				Expect(*pending.ResultCode).To(Equal("0"))
				Expect(mockRepo.unmatched).To(BeEmpty())
			})
		})

		Context("when a failure callback arrives", func() {
			It("should transition the transaction to failed", func() {
				cb := stkCallback("ws_CO_123", json.Number("1032"))
				cb.ResultDesc = "Request cancelled by user"

				err := service.Reconcile(ctx, cb, json.RawMessage(`{}`))

				Expect(err).ToNot(HaveOccurred())
				Expect(pending.Status).To(Equal(transaction.StatusFailed))
				Expect(*pending.ResultCode).To(Equal("1032"))
				Expect(*pending.ResultDesc).To(Equal("Request cancelled by user"))
			})
		})

		Context("when the same outcome is delivered twice", func() {
			It("should treat the redelivery as a no-op", func() {
				cb := stkCallback("ws_CO_123", json.Number("0"))

				Expect(service.Reconcile(ctx, cb, json.RawMessage(`{}`))).To(Succeed())
				Expect(service.Reconcile(ctx, cb, json.RawMessage(`{}`))).To(Succeed())

				Expect(pending.Status).To(Equal(transaction.StatusSuccess))
				Expect(mockRepo.unmatched).To(BeEmpty())
			})
		})

		Context("when a conflicting outcome is delivered", func() {
			It("should keep the stored outcome and record the conflict", func() {
				Expect(service.Reconcile(ctx, stkCallback("ws_CO_123", json.Number("0")), json.RawMessage(`{}`))).To(Succeed())

				conflicting := stkCallback("ws_CO_123", json.Number("1"))
				Expect(service.Reconcile(ctx, conflicting, json.RawMessage(`{}`))).To(Succeed())

				Expect(pending.Status).To(Equal(transaction.StatusSuccess))
				Expect(mockRepo.unmatched).To(HaveLen(1))
				Expect(mockRepo.unmatched[0].Reason).To(Equal(transaction.UnmatchedReasonConflict))
				Expect(mockRepo.unmatched[0].CheckoutRequestID).To(Equal("ws_CO_123"))
			})
		})

		Context("when no transaction matches the callback", func() {
			It("should persist the callback as unmatched", func() {
				cb := stkCallback("ws_CO_unknown", json.Number("0"))
				raw := json.RawMessage(`{"Body":{}}`)

				err := service.Reconcile(ctx, cb, raw)

				Expect(err).ToNot(HaveOccurred())
				Expect(mockRepo.unmatched).To(HaveLen(1))
				Expect(mockRepo.unmatched[0].Reason).To(Equal(transaction.UnmatchedReasonNoTransaction))
				Expect(mockRepo.unmatched[0].Payload).To(Equal(raw))
			})
		})

		Context("when applying the result fails", func() {
			It("should return the storage error", func() {
				mockRepo.applyError = errors.New("write failed")
				cb := stkCallback("ws_CO_123", json.Number("0"))

				err := service.Reconcile(ctx, cb, json.RawMessage(`{}`))

				Expect(err).To(HaveOccurred())
				Expect(pending.Status).To(Equal(transaction.StatusPending))
			})
		})

		Context("when the guarded update matches no row but the transaction is still pending", func() {
			It("should return an error so the provider redelivers", func() {
				mockRepo.applyLoses = true
				cb := stkCallback("ws_CO_123", json.Number("0"))

				err := service.Reconcile(ctx, cb, json.RawMessage(`{}`))

				Expect(err).To(HaveOccurred())
				var appErr *apperrors.AppError
				Expect(errors.As(err, &appErr)).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeConflictingCallback))
				Expect(pending.Status).To(Equal(transaction.StatusPending))
				Expect(mockRepo.unmatched).To(BeEmpty())
			})
		})

		Context("when the callback amount differs from the initiation amount", func() {
			It("should keep the initiation amount authoritative in stored state", func() {
				cb := stkCallback("ws_CO_123", json.Number("0"),
					paymentPkg.MetadataItem{Name: "Amount", Value: 9999.0},
				)

				err := service.Reconcile(ctx, cb, json.RawMessage(`{}`))

				Expect(err).ToNot(HaveOccurred())
				Expect(pending.Status).To(Equal(transaction.StatusSuccess))
				Expect(pending.Amount).To(Equal(7500.0))
			})
		})
	})

	Describe("GetTransaction", func() {
		BeforeEach(func() {
			req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 100}
			_, err := service.Initiate(ctx, 42, req)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should return the owner's transaction", func() {
			txn, err := service.GetTransaction(1, 42, false)

			Expect(err).ToNot(HaveOccurred())
			Expect(txn.UserID).To(Equal(int64(42)))
		})

		It("should deny access to another user's transaction", func() {
			txn, err := service.GetTransaction(1, 7, false)

			Expect(err).To(MatchError(apperrors.ErrUnauthorizedAccess))
			Expect(txn).To(BeNil())
		})

		It("should allow admins to read any transaction", func() {
			txn, err := service.GetTransaction(1, 7, true)

			Expect(err).ToNot(HaveOccurred())
			Expect(txn).ToNot(BeNil())
		})
	})
})

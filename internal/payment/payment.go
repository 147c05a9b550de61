package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/datamodel/transaction"
	"github.com/solatech/solar-commerce/internal/core/events"
	"github.com/solatech/solar-commerce/internal/mpesagateway"
)

// RepositoryAPI is the transaction store contract. ApplyResult must be a
// storage-level compare-and-set: it updates only while the row is still
// pending and reports how many rows it touched, so concurrent callback
// deliveries for the same key serialize instead of interleaving.
type RepositoryAPI interface {
	CreatePending(txn *transaction.Transaction) error
	GetByID(id int64) (*transaction.Transaction, error)
	GetByCheckoutRequestID(checkoutRequestID string) (*transaction.Transaction, error)
	GetByUserID(userID int64, limit, offset int) ([]*transaction.Transaction, error)
	ApplyResult(checkoutRequestID string, result ReconcileResult) (int64, error)
	RecordUnmatched(cb *transaction.UnmatchedCallback) error
}

// ReconcileResult carries the terminal outcome applied to a pending
// transaction. ConfirmedPhone and Receipt come from callback metadata and
// overwrite stored values only when present. ConfirmedAmount is informational:
// the initiation amount stays authoritative in storage.
type ReconcileResult struct {
	ResultCode      string
	ResultDesc      string
	Status          string
	ConfirmedPhone  *string
	ConfirmedAmount *float64
	Receipt         *string
}

// GatewayAPI is the outbound provider client contract.
type GatewayAPI interface {
	STKPush(ctx context.Context, phone string, amount float64, accountReference string) (*mpesagateway.STKPushResponse, error)
	AccountReference(userID int64, timestamp string) string
}

type Service struct {
	repo     RepositoryAPI
	gateway  GatewayAPI
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, gateway GatewayAPI, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Initiate starts a payment: validate, push to the gateway, persist the
// pending transaction. Exactly zero or one row is created per call; nothing
// is persisted unless the gateway accepted the request and issued a checkout
// request identifier.
func (s *Service) Initiate(ctx context.Context, userID int64, req *InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		s.logger.Error("payment initiation validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	accountRef := s.gateway.AccountReference(userID, time.Now().Format("20060102150405"))

	pushResp, err := s.gateway.STKPush(ctx, req.Phone, req.Amount, accountRef)
	if err != nil {
		s.logger.Error("stk push failed",
			"error", err,
			"user_id", userID,
			"phone", req.Phone,
			"amount", req.Amount)
		return nil, mapGatewayError(err)
	}

	rawResp, _ := json.Marshal(pushResp)

	txn := &transaction.Transaction{
		UserID:            userID,
		OrderID:           req.OrderID,
		Phone:             req.Phone,
		Amount:            req.Amount,
		CheckoutRequestID: &pushResp.CheckoutRequestID,
		MerchantRequestID: &pushResp.MerchantRequestID,
		Status:            transaction.StatusPending,
		GatewayResponse:   rawResp,
	}

	if err := s.repo.CreatePending(txn); err != nil {
		// The provider believes a payment is pending but no local row exists.
		// The callback for this checkout request will land in
		// unmatched_callbacks, which is the observable trail for the gap.
		s.logger.Error("failed to persist pending transaction after gateway acceptance",
			"error", err,
			"user_id", userID,
			"checkout_request_id", pushResp.CheckoutRequestID)
		appErr := apperrors.NewInternalError("payment accepted by gateway but could not be recorded", err).
			WithDetails(map[string]string{"checkout_request_id": pushResp.CheckoutRequestID})
		appErr.Code = apperrors.ErrCodePersistenceFailed
		return nil, appErr
	}

	s.logger.Info("pending transaction created",
		"transaction_id", txn.ID,
		"user_id", userID,
		"checkout_request_id", pushResp.CheckoutRequestID,
		"amount", req.Amount)

	if s.eventBus != nil {
		event := events.NewPaymentInitiatedEvent(txn.ID, txn.OrderID, userID, pushResp.CheckoutRequestID, req.Phone, req.Amount)
		s.eventBus.Publish(ctx, event)
	}

	return &InitiatePaymentResponse{
		TransactionID:       txn.ID,
		CheckoutRequestID:   pushResp.CheckoutRequestID,
		MerchantRequestID:   pushResp.MerchantRequestID,
		ResponseDescription: pushResp.ResponseDescription,
		CustomerMessage:     pushResp.CustomerMessage,
	}, nil
}

// Reconcile applies a provider callback to its pending transaction. The
// transition to a terminal status happens at most once; re-delivery of the
// same outcome is a no-op and a conflicting outcome is recorded as an
// anomaly with the stored outcome preserved.
func (s *Service) Reconcile(ctx context.Context, cb *StkCallback, rawPayload json.RawMessage) error {
	rc := cb.Result()

	status := transaction.StatusFailed
	if rc.IsSuccess() {
		status = transaction.StatusSuccess
	}

	result := ReconcileResult{
		ResultCode: rc.String(),
		ResultDesc: cb.ResultDesc,
		Status:     status,
	}

	txn, err := s.repo.GetByCheckoutRequestID(cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			return s.recordUnmatched(cb, rawPayload, transaction.UnmatchedReasonNoTransaction)
		}
		s.logger.Error("transaction lookup failed during reconciliation",
			"error", err,
			"checkout_request_id", cb.CheckoutRequestID)
		return err
	}

	if rc.IsSuccess() {
		amount, phone, receipt := cb.ConfirmedDetails()
		if amount != nil && *amount != txn.Amount {
			// The initiation amount stays authoritative; the mismatch is only
			// surfaced for operator follow-up.
			s.logger.Warn("callback amount differs from initiation amount",
				"checkout_request_id", cb.CheckoutRequestID,
				"initiated_amount", txn.Amount,
				"confirmed_amount", *amount)
		}
		result.ConfirmedAmount = amount
		result.ConfirmedPhone = phone
		result.Receipt = receipt
	}

	rows, err := s.repo.ApplyResult(cb.CheckoutRequestID, result)
	if err != nil {
		s.logger.Error("failed to apply callback result",
			"error", err,
			"checkout_request_id", cb.CheckoutRequestID)
		return err
	}

	if rows == 0 {
		return s.handleRedelivery(cb, rawPayload, status)
	}

	s.logger.Info("transaction reconciled",
		"transaction_id", txn.ID,
		"checkout_request_id", cb.CheckoutRequestID,
		"result_code", rc.String(),
		"status", status)

	s.publishOutcome(ctx, txn, result)
	return nil
}

// handleRedelivery deals with a callback whose CAS matched no pending row:
// either the same outcome arrived again (idempotent no-op) or a different
// outcome contradicts the stored terminal state.
func (s *Service) handleRedelivery(cb *StkCallback, rawPayload json.RawMessage, newStatus string) error {
	existing, err := s.repo.GetByCheckoutRequestID(cb.CheckoutRequestID)
	if err != nil {
		s.logger.Error("transaction disappeared during reconciliation",
			"error", err,
			"checkout_request_id", cb.CheckoutRequestID)
		return err
	}

	if !existing.IsTerminal() {
		// The row is still pending, so the guarded update lost a race with
		// a concurrent writer. Failing here makes the provider redeliver.
		s.logger.Warn("reconciliation raced a concurrent update, awaiting redelivery",
			"transaction_id", existing.ID,
			"checkout_request_id", cb.CheckoutRequestID)
		return apperrors.NewConflictError("transaction update raced, retry expected",
			apperrors.ErrCodeConflictingCallback)
	}

	if existing.Status == newStatus {
		s.logger.Info("duplicate callback for terminal transaction ignored",
			"transaction_id", existing.ID,
			"checkout_request_id", cb.CheckoutRequestID,
			"status", existing.Status)
		return nil
	}

	s.logger.Error("conflicting callback outcome for terminal transaction",
		"transaction_id", existing.ID,
		"checkout_request_id", cb.CheckoutRequestID,
		"code", string(apperrors.ErrCodeConflictingCallback),
		"stored_status", existing.Status,
		"callback_status", newStatus,
		"callback_result_code", cb.ResultCode.String())

	return s.recordUnmatched(cb, rawPayload, transaction.UnmatchedReasonConflict)
}

func (s *Service) recordUnmatched(cb *StkCallback, rawPayload json.RawMessage, reason string) error {
	unmatched := &transaction.UnmatchedCallback{
		CheckoutRequestID: cb.CheckoutRequestID,
		MerchantRequestID: cb.MerchantRequestID,
		ResultCode:        cb.ResultCode.String(),
		ResultDesc:        cb.ResultDesc,
		Reason:            reason,
		Payload:           rawPayload,
	}

	if err := s.repo.RecordUnmatched(unmatched); err != nil {
		s.logger.Error("failed to record unmatched callback",
			"error", err,
			"checkout_request_id", cb.CheckoutRequestID,
			"reason", reason)
		return err
	}

	s.logger.Warn("callback recorded as unmatched",
		"checkout_request_id", cb.CheckoutRequestID,
		"result_code", cb.ResultCode.String(),
		"reason", reason)

	return nil
}

func (s *Service) publishOutcome(ctx context.Context, txn *transaction.Transaction, result ReconcileResult) {
	if s.eventBus == nil {
		return
	}

	if result.Status == transaction.StatusSuccess {
		receipt := ""
		if result.Receipt != nil {
			receipt = *result.Receipt
		}
		event := events.NewPaymentCompletedEvent(txn.ID, txn.OrderID, derefString(txn.CheckoutRequestID), txn.Amount, receipt)
		s.eventBus.Publish(ctx, event)
	} else {
		event := events.NewPaymentFailedEvent(txn.ID, txn.OrderID, derefString(txn.CheckoutRequestID), txn.Amount, result.ResultCode, result.ResultDesc)
		s.eventBus.Publish(ctx, event)
	}
}

// GetTransaction returns a transaction with ownership enforced for
// non-admin callers.
func (s *Service) GetTransaction(id, userID int64, isAdmin bool) (*transaction.Transaction, error) {
	txn, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && txn.UserID != userID {
		s.logger.Warn("unauthorized access to transaction", "transaction_id", id, "user_id", userID)
		return nil, apperrors.ErrUnauthorizedAccess
	}
	return txn, nil
}

func (s *Service) GetUserTransactions(userID int64, limit, offset int) ([]*transaction.Transaction, error) {
	return s.repo.GetByUserID(userID, limit, offset)
}

func mapGatewayError(err error) error {
	var authErr *mpesagateway.AuthError
	var netErr *mpesagateway.NetworkError
	var gwErr *mpesagateway.GatewayError

	switch {
	case errors.As(err, &authErr):
		return apperrors.NewExternalError("payment gateway authentication failed", apperrors.ErrCodeGatewayAuthFailed, err)
	case errors.As(err, &netErr):
		return apperrors.NewExternalError("payment gateway unreachable", apperrors.ErrCodeGatewayUnreachable, err)
	case errors.As(err, &gwErr):
		return apperrors.NewExternalError("payment gateway rejected the request", apperrors.ErrCodeGatewayError, err)
	default:
		return apperrors.NewExternalError("payment initiation failed", apperrors.ErrCodePaymentInitFailed, err)
	}
}

func ToView(txn *transaction.Transaction) TransactionView {
	return TransactionView{
		ID:                txn.ID,
		OrderID:           txn.OrderID,
		Phone:             txn.Phone,
		Amount:            txn.Amount,
		CheckoutRequestID: txn.CheckoutRequestID,
		MerchantRequestID: txn.MerchantRequestID,
		MpesaReceipt:      txn.MpesaReceipt,
		ResultCode:        txn.ResultCode,
		ResultDesc:        txn.ResultDesc,
		Status:            txn.Status,
		CreatedAt:         txn.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

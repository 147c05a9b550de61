package postgres

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/datamodel/transaction"
	paymentpkg "github.com/solatech/solar-commerce/internal/payment"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &TransactionRepository{
		db: db,
	}
}

func (r *TransactionRepository) CreatePending(txn *transaction.Transaction) error {
	txn.Status = transaction.StatusPending
	return r.db.Create(txn).Error
}

func (r *TransactionRepository) GetByID(id int64) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := r.db.First(&txn, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) GetByCheckoutRequestID(checkoutRequestID string) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := r.db.Where("checkout_request_id = ?", checkoutRequestID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) GetByUserID(userID int64, limit, offset int) ([]*transaction.Transaction, error) {
	var txns []*transaction.Transaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	return txns, err
}

// ApplyResult moves a transaction out of pending with a single guarded
// UPDATE. The WHERE clause carries the pending check, so among concurrent
// deliveries for the same checkout request exactly one sees a non-zero row
// count.
func (r *TransactionRepository) ApplyResult(checkoutRequestID string, result paymentpkg.ReconcileResult) (int64, error) {
	updates := map[string]interface{}{
		"status":      result.Status,
		"result_code": result.ResultCode,
		"result_desc": result.ResultDesc,
	}

	if result.ConfirmedPhone != nil {
		updates["phone"] = *result.ConfirmedPhone
	}

	if result.Receipt != nil {
		updates["mpesa_receipt"] = *result.Receipt
	}

	res := r.db.Model(&transaction.Transaction{}).
		Where("checkout_request_id = ? AND status = ?", checkoutRequestID, transaction.StatusPending).
		Updates(updates)

	return res.RowsAffected, res.Error
}

func (r *TransactionRepository) RecordUnmatched(cb *transaction.UnmatchedCallback) error {
	return r.db.Create(cb).Error
}

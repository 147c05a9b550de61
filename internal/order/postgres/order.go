package postgres

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/datamodel/order"
	orderpkg "github.com/solatech/solar-commerce/internal/order"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) orderpkg.Repository {
	return &OrderRepository{
		db: db,
	}
}

func (r *OrderRepository) Create(o *order.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id int64) (*order.Order, error) {
	var o order.Order
	err := r.db.Preload("Items").First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByCustomerID(customerID int64, limit, offset int) ([]*order.Order, error) {
	var orders []*order.Order
	err := r.db.Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) UpdateStatus(id int64, status string) error {
	res := r.db.Model(&order.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

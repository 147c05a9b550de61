package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/solatech/solar-commerce/internal"
	cartpkg "github.com/solatech/solar-commerce/internal/cart"
	"github.com/solatech/solar-commerce/internal/core/datamodel/order"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) cartpkg.Repository {
	return &CartRepository{
		db: db,
	}
}

func (r *CartRepository) GetItems(userID int64) ([]*order.CartItem, error) {
	var items []*order.CartItem
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error
	return items, err
}

func (r *CartRepository) GetItem(userID, productID int64) (*order.CartItem, error) {
	var item order.CartItem
	err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCartItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *CartRepository) Upsert(item *order.CartItem) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "price", "name", "image", "updated_at"}),
	}).Create(item).Error
}

func (r *CartRepository) UpdateQuantity(userID, productID int64, quantity int) error {
	return r.db.Model(&order.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity).Error
}

func (r *CartRepository) Remove(userID, productID int64) error {
	return r.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&order.CartItem{}).Error
}

func (r *CartRepository) Clear(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&order.CartItem{}).Error
}

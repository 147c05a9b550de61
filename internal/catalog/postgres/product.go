package postgres

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/solatech/solar-commerce/internal"
	catalogpkg "github.com/solatech/solar-commerce/internal/catalog"
	"github.com/solatech/solar-commerce/internal/core/datamodel/catalog"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) catalogpkg.Repository {
	return &ProductRepository{
		db: db,
	}
}

func (r *ProductRepository) Create(p *catalog.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) GetByID(id int64) (*catalog.Product, error) {
	var p catalog.Product
	err := r.db.Preload("Tags").First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) List(filter catalogpkg.ListFilter) ([]*catalog.Product, error) {
	query := r.db.Model(&catalog.Product{}).Preload("Tags")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filter.Tag != "" {
		query = query.Joins("JOIN product_tags pt ON pt.product_id = products.id").
			Joins("JOIN tags t ON t.id = pt.tag_id").
			Where("t.name = ?", filter.Tag)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("price <= ?", filter.MaxPrice)
	}
	if filter.Popular {
		query = query.Where("is_popular = true")
	}
	if filter.ProviderID != 0 {
		query = query.Where("provider_id = ?", filter.ProviderID)
	}

	var products []*catalog.Product
	err := query.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&products).Error
	return products, err
}

func (r *ProductRepository) Update(p *catalog.Product) error {
	return r.db.Save(p).Error
}

func (r *ProductRepository) Delete(id int64) error {
	return r.db.Delete(&catalog.Product{}, id).Error
}

// DecrementStock reduces stock only while enough remains, so concurrent
// checkouts cannot oversell.
func (r *ProductRepository) DecrementStock(productID int64, quantity int) error {
	res := r.db.Model(&catalog.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NewValidationError("insufficient stock", apperrors.ErrCodeInvalidQuantity)
	}
	return nil
}

// RestoreStock returns previously reserved units, undoing a DecrementStock
// when the reservation's checkout does not go through.
func (r *ProductRepository) RestoreStock(productID int64, quantity int) error {
	return r.db.Model(&catalog.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}

func (r *ProductRepository) FindOrCreateTags(names []string) ([]catalog.Tag, error) {
	tags := make([]catalog.Tag, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		var tag catalog.Tag
		err := r.db.Where("name = ?", name).FirstOrCreate(&tag, catalog.Tag{Name: name}).Error
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

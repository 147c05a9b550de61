package catalog

import (
	"fmt"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/datamodel/catalog"
)

type Repository interface {
	Create(p *catalog.Product) error
	GetByID(id int64) (*catalog.Product, error)
	List(filter ListFilter) ([]*catalog.Product, error)
	Update(p *catalog.Product) error
	Delete(id int64) error
	DecrementStock(productID int64, quantity int) error
	RestoreStock(productID int64, quantity int) error
	FindOrCreateTags(names []string) ([]catalog.Tag, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) CreateProduct(providerID int64, req *CreateProductRequest) (*catalog.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tags, err := s.repo.FindOrCreateTags(req.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tags: %w", err)
	}

	p := &catalog.Product{
		Name:             req.Name,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Price:            req.Price,
		OriginalPrice:    req.OriginalPrice,
		Wattage:          req.Wattage,
		Duration:         req.Duration,
		WarrantyPeriod:   req.WarrantyPeriod,
		Stock:            req.Stock,
		ImageURL:         req.ImageURL,
		ProviderID:       providerID,
		Tags:             tags,
	}

	if err := s.repo.Create(p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return p, nil
}

func (s *Service) GetProduct(id int64) (*catalog.Product, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListProducts(filter ListFilter) ([]*catalog.Product, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(filter)
}

// UpdateProduct applies a partial update. Only the product's provider or an
// admin may modify it.
func (s *Service) UpdateProduct(id, callerID int64, isAdmin bool, req *UpdateProductRequest) (*catalog.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && p.ProviderID != callerID {
		return nil, apperrors.ErrUnauthorizedAccess
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.ShortDescription != nil {
		p.ShortDescription = *req.ShortDescription
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		p.OriginalPrice = req.OriginalPrice
	}
	if req.Wattage != nil {
		p.Wattage = *req.Wattage
	}
	if req.Duration != nil {
		p.Duration = *req.Duration
	}
	if req.WarrantyPeriod != nil {
		p.WarrantyPeriod = *req.WarrantyPeriod
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if req.IsPopular != nil {
		p.IsPopular = *req.IsPopular
	}

	if err := s.repo.Update(p); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return p, nil
}

func (s *Service) DeleteProduct(id, callerID int64, isAdmin bool) error {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if !isAdmin && p.ProviderID != callerID {
		return apperrors.ErrUnauthorizedAccess
	}

	return s.repo.Delete(id)
}

package cart

import (
	"fmt"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/common/validation"
	"github.com/solatech/solar-commerce/internal/core/datamodel/catalog"
	"github.com/solatech/solar-commerce/internal/core/datamodel/order"
)

type Repository interface {
	GetItems(userID int64) ([]*order.CartItem, error)
	GetItem(userID, productID int64) (*order.CartItem, error)
	Upsert(item *order.CartItem) error
	UpdateQuantity(userID, productID int64, quantity int) error
	Remove(userID, productID int64) error
	Clear(userID int64) error
}

type ProductGetter interface {
	GetProduct(id int64) (*catalog.Product, error)
}

type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (r *AddItemRequest) Validate() error {
	v := validation.NewValidator()
	v.Field("product_id", r.ProductID).Required()
	v.Field("quantity", r.Quantity).Positive(apperrors.ErrCodeInvalidQuantity)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartView struct {
	Items []ItemView `json:"items"`
	Total float64    `json:"total"`
}

type ItemView struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type Service struct {
	repo     Repository
	products ProductGetter
}

func NewService(repo Repository, products ProductGetter) *Service {
	return &Service{
		repo:     repo,
		products: products,
	}
}

// AddItem puts a product in the cart, snapshotting its current price and
// name. Adding a product already in the cart accumulates quantity.
func (s *Service) AddItem(userID int64, req *AddItemRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	p, err := s.products.GetProduct(req.ProductID)
	if err != nil {
		return err
	}

	if p.Stock < req.Quantity {
		return apperrors.NewValidationError("insufficient stock", apperrors.ErrCodeInvalidQuantity)
	}

	quantity := req.Quantity
	if existing, err := s.repo.GetItem(userID, req.ProductID); err == nil && existing != nil {
		quantity += existing.Quantity
	}

	item := &order.CartItem{
		UserID:    userID,
		ProductID: p.ID,
		Quantity:  quantity,
		Price:     p.Price,
		Name:      p.Name,
		Image:     p.ImageURL,
	}

	if err := s.repo.Upsert(item); err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

func (s *Service) GetCart(userID int64) (*CartView, error) {
	items, err := s.repo.GetItems(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	view := &CartView{Items: make([]ItemView, 0, len(items))}
	for _, item := range items {
		subtotal := item.Price * float64(item.Quantity)
		view.Items = append(view.Items, ItemView{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		view.Total += subtotal
	}
	return view, nil
}

func (s *Service) UpdateQuantity(userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.repo.Remove(userID, productID)
	}

	if _, err := s.repo.GetItem(userID, productID); err != nil {
		return err
	}

	return s.repo.UpdateQuantity(userID, productID, quantity)
}

func (s *Service) RemoveItem(userID, productID int64) error {
	return s.repo.Remove(userID, productID)
}

func (s *Service) Clear(userID int64) error {
	return s.repo.Clear(userID)
}

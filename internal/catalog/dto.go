package catalog

import (
	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/common/validation"
	"github.com/solatech/solar-commerce/internal/core/datamodel/catalog"
)

type CreateProductRequest struct {
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description,omitempty"`
	Description      string   `json:"description,omitempty"`
	Price            float64  `json:"price"`
	OriginalPrice    *float64 `json:"original_price,omitempty"`
	Wattage          string   `json:"wattage,omitempty"`
	Duration         string   `json:"duration,omitempty"`
	WarrantyPeriod   string   `json:"warranty_period,omitempty"`
	Stock            int      `json:"stock"`
	ImageURL         string   `json:"image_url,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

func (r *CreateProductRequest) Validate() error {
	v := validation.NewValidator()

	v.Field("name", r.Name).Required().MaxLength(255)
	v.Field("price", r.Price).Required().Positive(apperrors.ErrCodeInvalidAmount)

	v.Field("stock", r.Stock).Custom(func(value interface{}) *apperrors.AppError {
		if stock, ok := value.(int); ok && stock < 0 {
			return apperrors.NewValidationFieldError("stock", "stock cannot be negative", apperrors.ErrCodeValidationFailed)
		}
		return nil
	})

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateProductRequest struct {
	Name             *string  `json:"name,omitempty"`
	ShortDescription *string  `json:"short_description,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	OriginalPrice    *float64 `json:"original_price,omitempty"`
	Wattage          *string  `json:"wattage,omitempty"`
	Duration         *string  `json:"duration,omitempty"`
	WarrantyPeriod   *string  `json:"warranty_period,omitempty"`
	Stock            *int     `json:"stock,omitempty"`
	ImageURL         *string  `json:"image_url,omitempty"`
	IsPopular        *bool    `json:"is_popular,omitempty"`
}

func (r *UpdateProductRequest) Validate() error {
	v := validation.NewValidator()

	if r.Price != nil {
		v.Field("price", *r.Price).Positive(apperrors.ErrCodeInvalidAmount)
	}
	if r.Stock != nil && *r.Stock < 0 {
		return apperrors.NewValidationFieldError("stock", "stock cannot be negative", apperrors.ErrCodeValidationFailed)
	}

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ListFilter narrows product listings. Zero values mean no filtering.
type ListFilter struct {
	Search     string
	Tag        string
	MaxPrice   float64
	Popular    bool
	ProviderID int64
	Limit      int
	Offset     int
}

type ProductView struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description,omitempty"`
	Description      string   `json:"description,omitempty"`
	Price            float64  `json:"price"`
	OriginalPrice    *float64 `json:"original_price,omitempty"`
	Wattage          string   `json:"wattage,omitempty"`
	Duration         string   `json:"duration,omitempty"`
	WarrantyPeriod   string   `json:"warranty_period,omitempty"`
	Stock            int      `json:"stock"`
	Rating           float64  `json:"rating"`
	NumReviews       int      `json:"num_reviews"`
	IsPopular        bool     `json:"is_popular"`
	ImageURL         string   `json:"image_url,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

func ToView(p *catalog.Product) ProductView {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	return ProductView{
		ID:               p.ID,
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Price:            p.Price,
		OriginalPrice:    p.OriginalPrice,
		Wattage:          p.Wattage,
		Duration:         p.Duration,
		WarrantyPeriod:   p.WarrantyPeriod,
		Stock:            p.Stock,
		Rating:           p.Rating,
		NumReviews:       p.NumReviews,
		IsPopular:        p.IsPopular,
		ImageURL:         p.ImageURL,
		Tags:             tags,
	}
}

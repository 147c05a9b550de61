package catalog

import "time"

type Product struct {
	ID               int64     `gorm:"primaryKey"`
	Name             string    `gorm:"column:name;not null"`
	ShortDescription string    `gorm:"column:short_description"`
	Description      string    `gorm:"column:description;type:text"`
	ImageURL         string    `gorm:"column:image_url"`
	Wattage          string    `gorm:"column:wattage"`
	Duration         string    `gorm:"column:duration"`
	WarrantyPeriod   string    `gorm:"column:warranty_period"`
	Stock            int       `gorm:"column:stock;default:0"`
	Price            float64   `gorm:"column:price;not null"`
	OriginalPrice    *float64  `gorm:"column:original_price"`
	Rating           float64   `gorm:"column:rating;default:0"`
	NumReviews       int       `gorm:"column:num_reviews;default:0"`
	IsPopular        bool      `gorm:"column:is_popular;default:false"`
	ProviderID       int64     `gorm:"column:provider_id;index"`
	Tags             []Tag     `gorm:"many2many:product_tags"`
	CreatedAt        time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt        time.Time `gorm:"column:updated_at;default:now()"`
}

func (Product) TableName() string {
	return "products"
}

type Tag struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

func (Tag) TableName() string {
	return "tags"
}

package order

import "time"

const (
	StatusPending       = "pending"
	StatusPaid          = "paid"
	StatusPaymentFailed = "payment_failed"
	StatusShipped       = "shipped"
	StatusDelivered     = "delivered"
)

type Order struct {
	ID         int64       `gorm:"primaryKey"`
	CustomerID int64       `gorm:"column:customer_id;not null;index"`
	Status     string      `gorm:"column:status;default:pending"`
	Total      float64     `gorm:"column:total;not null"`
	Items      []OrderItem `gorm:"foreignKey:OrderID"`
	CreatedAt  time.Time   `gorm:"column:created_at;default:now()"`
	UpdatedAt  time.Time   `gorm:"column:updated_at;default:now()"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID         int64   `gorm:"primaryKey"`
	OrderID    int64   `gorm:"column:order_id;not null;index"`
	ProductID  int64   `gorm:"column:product_id;not null"`
	Quantity   int     `gorm:"column:quantity;not null"`
	UnitPrice  float64 `gorm:"column:unit_price;not null"`
	TotalPrice float64 `gorm:"column:total_price;not null"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// CartItem snapshots name, price and image at add-to-cart time, matching what
// the storefront renders without joining products on every cart read.
type CartItem struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	ProductID int64     `gorm:"column:product_id;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Price     float64   `gorm:"column:price;not null"`
	Name      string    `gorm:"column:name"`
	Image     string    `gorm:"column:image"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// DashboardStats is the admin overview: sales, order and payment health in
// one read.
type DashboardStats struct {
	TotalRevenue       float64          `json:"total_revenue" db:"total_revenue"`
	TotalOrders        int64            `json:"total_orders" db:"total_orders"`
	PaidOrders         int64            `json:"paid_orders" db:"paid_orders"`
	PendingPayments    int64            `json:"pending_payments" db:"pending_payments"`
	FailedPayments     int64            `json:"failed_payments" db:"failed_payments"`
	UnmatchedCallbacks int64            `json:"unmatched_callbacks" db:"unmatched_callbacks"`
	ActiveProducts     int64            `json:"active_products" db:"active_products"`
	RegisteredUsers    int64            `json:"registered_users" db:"registered_users"`
	TotalTickets       int64            `json:"total_tickets" db:"total_tickets"`
	RevenueByDay       []RevenuePoint   `json:"revenue_by_day"`
	TopProducts        []ProductSummary `json:"top_products"`
	TicketsByStatus    []TicketCount    `json:"tickets_by_status"`
}

type RevenuePoint struct {
	Day     time.Time `json:"day" db:"day"`
	Revenue float64   `json:"revenue" db:"revenue"`
	Count   int64     `json:"count" db:"count"`
}

type ProductSummary struct {
	ProductID int64   `json:"product_id" db:"product_id"`
	Name      string  `json:"name" db:"name"`
	UnitsSold int64   `json:"units_sold" db:"units_sold"`
	Revenue   float64 `json:"revenue" db:"revenue"`
}

type TicketCount struct {
	Status string `json:"status" db:"status"`
	Count  int64  `json:"count" db:"count"`
}

type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{
		db: db,
	}
}

func (s *Service) Dashboard(ctx context.Context, days int) (*DashboardStats, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	var stats DashboardStats

	query := `
SELECT
  COALESCE((SELECT SUM(amount) FROM transactions WHERE status = 'success'), 0) AS total_revenue,
  (SELECT COUNT(*) FROM orders)                                               AS total_orders,
  (SELECT COUNT(*) FROM orders WHERE status = 'paid')                         AS paid_orders,
  (SELECT COUNT(*) FROM transactions WHERE status = 'pending')                AS pending_payments,
  (SELECT COUNT(*) FROM transactions WHERE status = 'failed')                 AS failed_payments,
  (SELECT COUNT(*) FROM unmatched_callbacks)                                  AS unmatched_callbacks,
  (SELECT COUNT(*) FROM products WHERE stock > 0)                             AS active_products,
  (SELECT COUNT(*) FROM users WHERE is_active = true)                         AS registered_users,
  (SELECT COUNT(*) FROM support_tickets)                                      AS total_tickets
`
	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("dashboard aggregates: %w", err)
	}

	revenueQuery := `
SELECT date_trunc('day', updated_at) AS day,
       SUM(amount)                   AS revenue,
       COUNT(*)                      AS count
FROM transactions
WHERE status = 'success'
  AND updated_at >= NOW() - ($1 * INTERVAL '1 day')
GROUP BY 1
ORDER BY 1
`
	if err := s.db.SelectContext(ctx, &stats.RevenueByDay, revenueQuery, days); err != nil {
		return nil, fmt.Errorf("revenue by day: %w", err)
	}

	topQuery := `
SELECT oi.product_id             AS product_id,
       COALESCE(p.name, '')      AS name,
       SUM(oi.quantity)          AS units_sold,
       SUM(oi.total_price)       AS revenue
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
LEFT JOIN products p ON p.id = oi.product_id
WHERE o.status IN ('paid', 'shipped', 'delivered')
GROUP BY oi.product_id, p.name
ORDER BY units_sold DESC
LIMIT 10
`
	if err := s.db.SelectContext(ctx, &stats.TopProducts, topQuery); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	ticketQuery := `
SELECT status, COUNT(*) AS count
FROM support_tickets
GROUP BY status
ORDER BY status
`
	if err := s.db.SelectContext(ctx, &stats.TicketsByStatus, ticketQuery); err != nil {
		return nil, fmt.Errorf("tickets by status: %w", err)
	}

	return &stats, nil
}

package ticket

import "time"

const (
	StatusOpen      = "open"
	StatusResponded = "responded"
	StatusClosed    = "closed"
)

// SupportTicket is a customer help request. Tickets start open and an admin
// response moves them to responded or closed.
type SupportTicket struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Subject   string    `gorm:"column:subject;not null"`
	Message   string    `gorm:"column:message;not null"`
	Response  *string   `gorm:"column:response"`
	Status    string    `gorm:"column:status;default:open"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (SupportTicket) TableName() string {
	return "support_tickets"
}

package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/datamodel/ticket"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{
		db: db,
	}
}

func (r *TicketRepository) Create(t *ticket.SupportTicket) error {
	return r.db.Create(t).Error
}

func (r *TicketRepository) GetByID(id int64) (*ticket.SupportTicket, error) {
	var t ticket.SupportTicket
	err := r.db.First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) GetByUserID(userID int64, limit, offset int) ([]*ticket.SupportTicket, error) {
	var tickets []*ticket.SupportTicket
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tickets).Error
	return tickets, err
}

func (r *TicketRepository) GetAll(status string, limit, offset int) ([]*ticket.SupportTicket, error) {
	query := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var tickets []*ticket.SupportTicket
	err := query.Find(&tickets).Error
	return tickets, err
}

func (r *TicketRepository) Respond(id int64, response, status string) error {
	result := r.db.Model(&ticket.SupportTicket{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"response":   response,
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}

package ticket

import (
	"fmt"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/datamodel/ticket"
)

type Repository interface {
	Create(t *ticket.SupportTicket) error
	GetByID(id int64) (*ticket.SupportTicket, error)
	GetByUserID(userID int64, limit, offset int) ([]*ticket.SupportTicket, error)
	GetAll(status string, limit, offset int) ([]*ticket.SupportTicket, error)
	Respond(id int64, response, status string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Create opens a support ticket for the given user.
func (s *Service) Create(userID int64, req *CreateTicketRequest) (*ticket.SupportTicket, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := &ticket.SupportTicket{
		UserID:  userID,
		Subject: req.Subject,
		Message: req.Message,
		Status:  ticket.StatusOpen,
	}

	if err := s.repo.Create(t); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return t, nil
}

// GetTicket returns a single ticket. Customers only see their own tickets;
// admins see any.
func (s *Service) GetTicket(id, userID int64, isAdmin bool) (*ticket.SupportTicket, error) {
	t, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && t.UserID != userID {
		return nil, apperrors.ErrUnauthorizedAccess
	}
	return t, nil
}

func (s *Service) GetUserTickets(userID int64, limit, offset int) ([]*ticket.SupportTicket, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetByUserID(userID, limit, offset)
}

// ListAll returns tickets across all users, optionally filtered by status.
func (s *Service) ListAll(status string, limit, offset int) ([]*ticket.SupportTicket, error) {
	if status != "" && status != ticket.StatusOpen && status != ticket.StatusResponded && status != ticket.StatusClosed {
		return nil, apperrors.NewValidationError("unknown ticket status", apperrors.ErrCodeValidationFailed)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetAll(status, limit, offset)
}

// Respond records an admin reply and moves the ticket out of open. When the
// request carries no status the ticket closes.
func (s *Service) Respond(id int64, req *RespondRequest) (*ticket.SupportTicket, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(id); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = ticket.StatusClosed
	}

	if err := s.repo.Respond(id, req.Response, status); err != nil {
		return nil, fmt.Errorf("failed to respond to ticket: %w", err)
	}

	return s.repo.GetByID(id)
}

package ticket

import (
	"time"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/common/validation"
	"github.com/solatech/solar-commerce/internal/core/datamodel/ticket"
)

type CreateTicketRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (r *CreateTicketRequest) Validate() error {
	v := validation.NewValidator()

	v.Field("subject", r.Subject).Required().MaxLength(255)
	v.Field("message", r.Message).Required().MaxLength(5000)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// RespondRequest is the admin reply. Status is optional and defaults to
// closed; responded keeps the ticket open for a follow-up.
type RespondRequest struct {
	Response string `json:"response"`
	Status   string `json:"status,omitempty"`
}

func (r *RespondRequest) Validate() error {
	v := validation.NewValidator()

	v.Field("response", r.Response).Required().MaxLength(5000)
	v.Field("status", r.Status).Custom(func(value interface{}) *apperrors.AppError {
		status, _ := value.(string)
		if status != "" && status != ticket.StatusResponded && status != ticket.StatusClosed {
			return apperrors.NewValidationFieldError("status", "status must be responded or closed", apperrors.ErrCodeValidationFailed)
		}
		return nil
	})

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type TicketView struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Response  *string   `json:"response,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToView(t *ticket.SupportTicket) TicketView {
	return TicketView{
		ID:        t.ID,
		UserID:    t.UserID,
		Subject:   t.Subject,
		Message:   t.Message,
		Response:  t.Response,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func ToViews(tickets []*ticket.SupportTicket) []TicketView {
	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, ToView(t))
	}
	return views
}

package user

import (
	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/core/common/validation"
	"github.com/solatech/solar-commerce/internal/core/datamodel/user"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role,omitempty"`
}

func (r *RegisterRequest) Validate() error {
	v := validation.NewValidator()

	v.Field("email", r.Email).Required().MaxLength(255)
	v.Field("password", r.Password).Required().MinLength(8)
	v.Field("first_name", r.FirstName).Required().MaxLength(100)
	v.Field("last_name", r.LastName).Required().MaxLength(100)

	if r.Phone != "" {
		v.Field("phone", r.Phone).Phone()
	}

	v.Field("role", r.Role).Custom(func(value interface{}) *apperrors.AppError {
		role, _ := value.(string)
		if role != "" && role != user.RoleCustomer && role != user.RoleProvider {
			return apperrors.NewValidationFieldError("role", "role must be customer or provider", apperrors.ErrCodeValidationFailed)
		}
		return nil
	})

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// AdminUpdateUserRequest carries the account fields an admin may change.
// Nil fields are left untouched.
type AdminUpdateUserRequest struct {
	Role       *string `json:"role,omitempty"`
	IsApproved *bool   `json:"is_approved,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

func (r *AdminUpdateUserRequest) Validate() error {
	v := validation.NewValidator()

	if r.Role != nil {
		v.Field("role", *r.Role).Custom(func(value interface{}) *apperrors.AppError {
			role, _ := value.(string)
			if role != user.RoleCustomer && role != user.RoleProvider && role != user.RoleAdmin {
				return apperrors.NewValidationFieldError("role", "role must be customer, provider or admin", apperrors.ErrCodeValidationFailed)
			}
			return nil
		})
	}

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UserView is the API shape of an account, never carrying the password hash.
type UserView struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role"`
	IsApproved bool   `json:"is_approved"`
}

func ToView(u *user.User) UserView {
	return UserView{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone,
		Role:       u.Role,
		IsApproved: u.IsApproved,
	}
}

package user

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/auth"
	"github.com/solatech/solar-commerce/internal/core/datamodel/user"
)

type Repository interface {
	Create(u *user.User) error
	GetByID(userID int64) (*user.User, error)
	GetByEmail(email string) (*user.User, error)
	EmailExists(email string) (bool, error)
	GetAll(limit, offset int) ([]*user.User, error)
	SetApproval(userID int64, approved bool) error
	Update(userID int64, fields map[string]interface{}) error
	Delete(userID int64) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Register creates a new account. Customers are active immediately;
// providers start unapproved and need an admin to approve them before their
// products are listed.
func (s *Service) Register(req *RegisterRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailExists
	}

	hash, err := auth.HashPassword(req.Password, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = user.RoleCustomer
	}

	u := &user.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         role,
		IsActive:     true,
		IsApproved:   role == user.RoleCustomer,
	}

	if err := s.repo.Create(u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *Service) GetByID(userID int64) (*user.User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// ApproveProvider marks a provider account as approved.
func (s *Service) ApproveProvider(userID int64) error {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	if u.Role != user.RoleProvider {
		return apperrors.NewValidationError("user is not a provider", apperrors.ErrCodeValidationFailed)
	}

	return s.repo.SetApproval(userID, true)
}

// ListUsers returns all accounts for the admin console.
func (s *Service) ListUsers(limit, offset int) ([]*user.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetAll(limit, offset)
}

// UpdateUser applies the fields an admin may change on an account. Only the
// fields present in the request are touched.
func (s *Service) UpdateUser(userID int64, req *AdminUpdateUserRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(userID); err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	fields := make(map[string]interface{})
	if req.Role != nil {
		fields["role"] = *req.Role
	}
	if req.IsApproved != nil {
		fields["is_approved"] = *req.IsApproved
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if len(fields) > 0 {
		if err := s.repo.Update(userID, fields); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return s.repo.GetByID(userID)
}

// DeleteUser removes an account entirely.
func (s *Service) DeleteUser(userID int64) error {
	if _, err := s.repo.GetByID(userID); err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}
	return s.repo.Delete(userID)
}

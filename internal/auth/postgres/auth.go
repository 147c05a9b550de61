package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/solatech/solar-commerce/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForEmail(email string) (string, int64, error) {
	var passwordHash string
	var userID int64
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, fmt.Errorf("user not found")
		}
		return "", 0, err
	}
	return passwordHash, userID, nil
}

func (r *Repository) GetUserByID(userID int64) (*user.User, error) {
	var u user.User
	err := r.db.First(&u, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return &u, nil
}

package user

import "time"

const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

type User struct {
	ID           int64     `gorm:"primaryKey"`
	FirstName    string    `gorm:"column:first_name;not null"`
	LastName     string    `gorm:"column:last_name;not null"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Phone        string    `gorm:"column:phone"`
	Role         string    `gorm:"column:role;default:customer"`
	IsApproved   bool      `gorm:"column:is_approved;default:false"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/solatech/solar-commerce/internal/core/datamodel/user"
)

type contextKey string

// ContextUserKey is where AuthMiddleware stores the authenticated user.
const ContextUserKey contextKey = "auth_user"

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUser(userID int64) (*User, error)
	HashPassword(password string) (string, error)
}

type RepositoryAPI interface {
	GetPasswordForEmail(email string) (passwordHash string, userID int64, err error)
	GetUserByID(userID int64) (*user.User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, email, role string) (token string, err error)
	GenerateRefreshToken(userID int64, email, role string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// User is the request-scoped identity carried in context after
// authentication.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == user.RoleAdmin
}

func (u *User) IsProvider() bool {
	return u.Role == user.RoleProvider
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
)

// UserFromContext returns the authenticated user set by AuthMiddleware.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

package auth

import (
	"log/slog"
	"net/http"
)

// RoleAuthorization guards routes behind the role carried by the
// authenticated user. It assumes AuthMiddleware already ran.
type RoleAuthorization struct {
	logger *slog.Logger
}

func NewRoleAuthorization(logger *slog.Logger) *RoleAuthorization {
	return &RoleAuthorization{
		logger: logger,
	}
}

func (ra *RoleAuthorization) require(check func(*User) bool, denied string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.logger.Warn("authorization check failed: user not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !check(user) {
				ra.logger.WarnContext(r.Context(), denied,
					"user_id", user.ID,
					"role", user.Role)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RoleAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.require(func(u *User) bool {
		return u.IsAdmin()
	}, "access denied: admin role required")
}

// RequireProvider admits providers and admins.
func (ra *RoleAuthorization) RequireProvider() func(http.Handler) http.Handler {
	return ra.require(func(u *User) bool {
		return u.IsProvider() || u.IsAdmin()
	}, "access denied: provider role required")
}

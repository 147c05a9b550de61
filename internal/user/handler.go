package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/auth"
	"github.com/solatech/solar-commerce/internal/core/datamodel/user"
	"github.com/solatech/solar-commerce/internal/transport"
	"github.com/solatech/solar-commerce/pkg/logger"
)

type ServiceAPI interface {
	Register(req *RegisterRequest) (*user.User, error)
	GetByID(userID int64) (*user.User, error)
	ApproveProvider(userID int64) error
	ListUsers(limit, offset int) ([]*user.User, error)
	UpdateUser(userID int64, req *AdminUpdateUserRequest) (*user.User, error)
	DeleteUser(userID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Register handles POST /api/v1/users/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	u, err := h.Service.Register(&req)
	if err != nil {
		h.Logger.Error("Register: service error", "error", err, "email", req.Email)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Register: user created", "user_id", u.ID, "role", u.Role)
	h.WriteJSON(w, http.StatusCreated, ToView(u))
}

// GetCurrentUser handles GET /api/v1/users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.UserFromContext(r.Context())
	if !ok || authUser == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(authUser.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service error", "user_id", authUser.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(u))
}

// ApproveProvider handles POST /api/v1/admin/providers/{id}/approve
func (h *Handler) ApproveProvider(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid user ID", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.ApproveProvider(id); err != nil {
		h.Logger.Error("ApproveProvider: service error", "user_id", id, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// ListUsers handles GET /api/v1/admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.Service.ListUsers(limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, ToView(u))
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": views,
	})
}

// GetUser handles GET /api/v1/admin/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid user ID", apperrors.ErrCodeValidationFailed))
		return
	}

	u, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(u))
}

// UpdateUser handles PATCH /api/v1/admin/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid user ID", apperrors.ErrCodeValidationFailed))
		return
	}

	var req AdminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	u, err := h.Service.UpdateUser(id, &req)
	if err != nil {
		h.Logger.Error("UpdateUser: service error", "user_id", id, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("UpdateUser: account updated", "user_id", id, "role", u.Role)
	h.WriteJSON(w, http.StatusOK, ToView(u))
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid user ID", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.DeleteUser(id); err != nil {
		h.Logger.Error("DeleteUser: service error", "user_id", id, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteUser: account removed", "user_id", id)
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

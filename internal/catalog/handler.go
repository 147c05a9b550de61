package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/auth"
	"github.com/solatech/solar-commerce/internal/core/datamodel/catalog"
	"github.com/solatech/solar-commerce/internal/transport"
	"github.com/solatech/solar-commerce/pkg/logger"
)

type ServiceAPI interface {
	CreateProduct(providerID int64, req *CreateProductRequest) (*catalog.Product, error)
	GetProduct(id int64) (*catalog.Product, error)
	ListProducts(filter ListFilter) ([]*catalog.Product, error)
	UpdateProduct(id, callerID int64, isAdmin bool, req *UpdateProductRequest) (*catalog.Product, error)
	DeleteProduct(id, callerID int64, isAdmin bool) error
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

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	products, err := h.Service.ListProducts(filter)
	if err != nil {
		h.Logger.Error("ListProducts: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, ToView(p))
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"products": views,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid product ID", apperrors.ErrCodeValidationFailed))
		return
	}

	p, err := h.Service.GetProduct(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(p))
}

// CreateProduct handles POST /api/v1/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	p, err := h.Service.CreateProduct(user.ID, &req)
	if err != nil {
		h.Logger.Error("CreateProduct: service error", "error", err, "provider_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateProduct: product created", "product_id", p.ID, "provider_id", user.ID)
	h.WriteJSON(w, http.StatusCreated, ToView(p))
}

// UpdateProduct handles PATCH /api/v1/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid product ID", apperrors.ErrCodeValidationFailed))
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid request body", apperrors.ErrCodeValidationFailed))
		return
	}

	p, err := h.Service.UpdateProduct(id, user.ID, user.IsAdmin(), &req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(p))
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, apperrors.NewValidationError("invalid product ID", apperrors.ErrCodeValidationFailed))
		return
	}

	if err := h.Service.DeleteProduct(id, user.ID, user.IsAdmin()); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()

	filter := ListFilter{
		Search:  q.Get("search"),
		Tag:     q.Get("tag"),
		Popular: q.Get("popular") == "true",
		Limit:   20,
	}

	if v := q.Get("max_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			filter.MaxPrice = f
		}
	}
	if v := q.Get("provider_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.ProviderID = id
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	return filter
}

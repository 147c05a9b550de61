package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/solatech/solar-commerce/internal/transport"
	"github.com/solatech/solar-commerce/pkg/logger"
)

type ServiceAPI interface {
	Dashboard(ctx context.Context, days int) (*DashboardStats, error)
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

// Dashboard handles GET /api/v1/admin/analytics/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	stats, err := h.Service.Dashboard(r.Context(), days)
	if err != nil {
		h.Logger.Error("Dashboard: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

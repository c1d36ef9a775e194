package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/order-management/internal/core/ports"
)

// AdminHandler serves system-wide statistics.
type AdminHandler struct {
	stats ports.StatsService
}

func NewAdminHandler(stats ports.StatsService) *AdminHandler {
	return &AdminHandler{stats: stats}
}

// Stats returns user and per-status order counts.
//
// @Summary      System statistics
// @Tags         admin
// @Produce      json
// @Success      200  {object}  apiResponse{data=statsResponse}
// @Failure      403  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Statistics retrieved successfully", toStatsResponse(stats)))
}

// Dashboard returns the headline counts.
//
// @Summary      Admin dashboard
// @Tags         admin
// @Produce      json
// @Success      200  {object}  apiResponse{data=dashboardResponse}
// @Failure      403  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Dashboard data retrieved successfully", toDashboardResponse(stats)))
}

func (h *AdminHandler) load(c echo.Context) (*ports.Stats, error) {
	claims, err := ctxClaims(c)
	if err != nil {
		return nil, err
	}
	return h.stats.Stats(c.Request().Context(), claims)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/middleware"
	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/SergeiKhy/campaign-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	service service.DashboardService
	logger  *zap.Logger
}

func NewDashboardHandler(service service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, logger: logger}
}

type SelectionRequest struct {
	Month  *int   `json:"month" binding:"required"`
	Status string `json:"status"`
}

// GetDashboard godoc
// @Summary Dashboard view for the current session
// @Description Overview counters, monthly buckets, pie stats and the drill-down list
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.DashboardView
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), middleware.SessionToken(c))
	if err != nil {
		h.selectionError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SelectMonth godoc
// @Summary Select a month and optional status
// @Tags dashboard
// @Accept json
// @Produce json
// @Param request body SelectionRequest true "Selection"
// @Success 200 {object} models.Selection
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/dashboard/selection [put]
func (h *DashboardHandler) SelectMonth(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}
	status, ok := parseStatus(req.Status)
	if !ok {
		badRequest(c, "invalid_status", engine.ErrInvalidStatus.Error())
		return
	}

	sel, err := h.service.SelectMonth(c.Request.Context(), middleware.SessionToken(c), *req.Month, status)
	if err != nil {
		h.selectionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

// ClearSelection godoc
// @Summary Clear the month and status selection
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.Selection
// @Router /api/v1/dashboard/selection [delete]
func (h *DashboardHandler) ClearSelection(c *gin.Context) {
	if err := h.service.ClearSelection(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		h.selectionError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Selection{})
}

// MonthlyStats godoc
// @Summary Campaigns per calendar month, years merged
// @Tags stats
// @Produce json
// @Success 200 {array} models.MonthlyBucket
// @Router /api/v1/stats/monthly [get]
func (h *DashboardHandler) MonthlyStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.MonthlyBuckets())
}

// PieStats godoc
// @Summary Active and deleted shares, global or for one month
// @Tags stats
// @Produce json
// @Param month query int false "Month index 0-11"
// @Success 200 {object} models.PieStats
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/stats/pie [get]
func (h *DashboardHandler) PieStats(c *gin.Context) {
	month, ok := parseMonth(c.Query("month"))
	if !ok {
		badRequest(c, "invalid_month", engine.ErrInvalidMonth.Error())
		return
	}
	pie, err := h.service.PieStats(month)
	if err != nil {
		h.selectionError(c, err)
		return
	}
	c.JSON(http.StatusOK, pie)
}

// MonthCampaigns godoc
// @Summary Campaigns created in a month, optionally by status
// @Tags stats
// @Produce json
// @Param month query int true "Month index 0-11"
// @Param status query string false "Active, Paused or Deleted"
// @Success 200 {array} models.Campaign
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/stats/month [get]
func (h *DashboardHandler) MonthCampaigns(c *gin.Context) {
	month, ok := parseMonth(c.Query("month"))
	if !ok || month == nil {
		badRequest(c, "invalid_month", engine.ErrInvalidMonth.Error())
		return
	}
	status, ok := parseStatus(c.Query("status"))
	if !ok {
		badRequest(c, "invalid_status", engine.ErrInvalidStatus.Error())
		return
	}
	list, err := h.service.MonthStatusFiltered(*month, status)
	if err != nil {
		h.selectionError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DashboardHandler) selectionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidMonth):
		badRequest(c, "invalid_month", err.Error())
	case errors.Is(err, engine.ErrInvalidStatus):
		badRequest(c, "invalid_status", err.Error())
	case errors.Is(err, engine.ErrSessionNotFound):
		sessionExpired(c)
	default:
		h.logger.Error("Failed to build dashboard", zap.Error(err))
		internalError(c, "Failed to build dashboard")
	}
}

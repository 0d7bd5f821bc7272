package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ActionResponse ответ на операцию над объектом по id; Found=false означает no-op
type ActionResponse struct {
	Message string `json:"message"`
	Found   bool   `json:"found"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthCheck godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: "campaign-dashboard"})
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: code, Message: message})
}

func internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: message})
}

func sessionExpired(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Session not found or expired"})
}

// parseStatus сопоставляет статус без учёта регистра; пустая строка означает «нет фильтра»
func parseStatus(raw string) (*models.CampaignStatus, bool) {
	if raw == "" {
		return nil, true
	}
	for _, s := range []models.CampaignStatus{models.StatusActive, models.StatusPaused, models.StatusDeleted} {
		if strings.EqualFold(raw, string(s)) {
			return &s, true
		}
	}
	return nil, false
}

// parseMonth разбирает индекс месяца из query; пустая строка означает «не задан»
func parseMonth(raw string) (*int, bool) {
	if raw == "" {
		return nil, true
	}
	m, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &m, true
}

package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/SergeiKhy/campaign-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	service service.DashboardService
	logger  *zap.Logger
}

func NewCampaignHandler(service service.DashboardService, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{service: service, logger: logger}
}

type DeleteAllResponse struct {
	Deleted int `json:"deleted"`
}

// ListCampaigns godoc
// @Summary List campaigns
// @Tags campaigns
// @Produce json
// @Param status query string false "active, deleted or all"
// @Success 200 {array} models.Campaign
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	list, err := h.service.ListCampaigns(c.DefaultQuery("status", service.FilterAll))
	if errors.Is(err, service.ErrInvalidFilter) {
		badRequest(c, "invalid_status", err.Error())
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Description New campaigns start Active with zero clicks and trend
// @Tags campaigns
// @Accept json
// @Produce json
// @Param request body models.CreateCampaignInput true "Campaign"
// @Success 201 {object} models.Campaign
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var input models.CreateCampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		badRequest(c, "invalid_request", err.Error())
		return
	}

	c.JSON(http.StatusCreated, h.service.AddCampaign(c.Request.Context(), &input))
}

// DeleteCampaign godoc
// @Summary Move a campaign to trash
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} ActionResponse
// @Router /api/v1/campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	if h.service.DeleteCampaign(c.Request.Context(), c.Param("id")) {
		c.JSON(http.StatusOK, ActionResponse{Message: "Campaign moved to trash", Found: true})
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Message: "Campaign not found, nothing changed"})
}

// RestoreCampaign godoc
// @Summary Restore a campaign
// @Description Sets status to Active regardless of the current status
// @Tags campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} ActionResponse
// @Router /api/v1/campaigns/{id}/restore [post]
func (h *CampaignHandler) RestoreCampaign(c *gin.Context) {
	if h.service.RestoreCampaign(c.Request.Context(), c.Param("id")) {
		c.JSON(http.StatusOK, ActionResponse{Message: "Campaign restored", Found: true})
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Message: "Campaign not found, nothing changed"})
}

// DeleteAllActive godoc
// @Summary Move every non-deleted campaign to trash
// @Tags campaigns
// @Produce json
// @Success 200 {object} DeleteAllResponse
// @Router /api/v1/campaigns/delete-active [post]
func (h *CampaignHandler) DeleteAllActive(c *gin.Context) {
	c.JSON(http.StatusOK, DeleteAllResponse{Deleted: h.service.DeleteAllActive(c.Request.Context())})
}

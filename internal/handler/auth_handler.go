package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/middleware"
	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/SergeiKhy/campaign-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service service.DashboardService
	logger  *zap.Logger
}

func NewAuthHandler(service service.DashboardService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string               `json:"token"`
	User      models.DashboardUser `json:"user"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Login godoc
// @Summary Log in
// @Description Authenticate by email (case-insensitive) and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		badRequest(c, "invalid_request", err.Error())
		return
	}

	user, sess, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_credentials",
				Message: "Invalid email or password",
			})
			return
		}
		h.logger.Error("Failed to log in", zap.Error(err))
		internalError(c, "Failed to log in")
		return
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sess.Token, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, LoginResponse{Token: sess.Token, User: user, ExpiresAt: sess.ExpiresAt})
}

// Logout godoc
// @Summary Log out
// @Description End the current session and drop its filter selection
// @Tags auth
// @Produce json
// @Success 200 {object} ActionResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	found := h.service.Logout(c.Request.Context(), middleware.SessionToken(c))
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, ActionResponse{Message: "Logged out", Found: found})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.DashboardUser
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		sessionExpired(c)
		return
	}
	c.JSON(http.StatusOK, user)
}

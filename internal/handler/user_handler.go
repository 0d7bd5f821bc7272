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
	"golang.org/x/crypto/bcrypt"
)

type UserHandler struct {
	service service.DashboardService
	logger  *zap.Logger
}

func NewUserHandler(service service.DashboardService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

type UserResponse struct {
	Message string                `json:"message"`
	Found   bool                  `json:"found"`
	User    *models.DashboardUser `json:"user,omitempty"`
}

type DeleteUserResponse struct {
	Message           string `json:"message"`
	Found             bool   `json:"found"`
	SessionTerminated bool   `json:"session_terminated"`
}

// ListUsers godoc
// @Summary List dashboard users
// @Tags users
// @Produce json
// @Success 200 {array} models.DashboardUser
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListUsers())
}

// CreateUser godoc
// @Summary Add a dashboard user
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.UserInput true "User"
// @Success 201 {object} models.DashboardUser
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input models.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		badRequest(c, "invalid_request", err.Error())
		return
	}

	user, err := h.service.AddUser(c.Request.Context(), input)
	if err != nil {
		h.userError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary Edit a dashboard user
// @Description An empty or missing password keeps the current one
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body models.UserInput true "User"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var input models.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		badRequest(c, "invalid_request", err.Error())
		return
	}

	user, found, err := h.service.EditUser(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.userError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, UserResponse{Message: "User not found, nothing changed"})
		return
	}
	c.JSON(http.StatusOK, UserResponse{Message: "User updated", Found: true, User: &user})
}

// DeleteUser godoc
// @Summary Delete a dashboard user
// @Description Deleting yourself ends your session
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} DeleteUserResponse
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	current, _ := middleware.CurrentUser(c)

	found, _ := h.service.DeleteUser(c.Request.Context(), id)
	if !found {
		c.JSON(http.StatusOK, DeleteUserResponse{Message: "User not found, nothing changed"})
		return
	}

	self := current.ID == id
	if self {
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	}
	c.JSON(http.StatusOK, DeleteUserResponse{Message: "User deleted", Found: true, SessionTerminated: self})
}

func (h *UserHandler) userError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidPermission):
		badRequest(c, "invalid_permission", err.Error())
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		badRequest(c, "invalid_password", "Password must be at most 72 bytes")
	default:
		h.logger.Error("Failed to save user", zap.Error(err))
		internalError(c, "Failed to save user")
	}
}

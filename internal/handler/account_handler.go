package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/SergeiKhy/campaign-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AccountHandler struct {
	service service.DashboardService
	logger  *zap.Logger
}

func NewAccountHandler(service service.DashboardService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{service: service, logger: logger}
}

// ListAccounts godoc
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Success 200 {array} models.Account
// @Router /api/v1/accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListAccounts())
}

// CreateAccount godoc
// @Summary Add an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body models.AccountInput true "Account"
// @Success 201 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var input models.AccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		badRequest(c, "invalid_request", err.Error())
		return
	}

	c.JSON(http.StatusCreated, h.service.AddAccount(c.Request.Context(), input))
}

// BulkCreateAccounts godoc
// @Summary Add accounts in one batch
// @Description JSON array of accounts, or a text/csv body of username,password rows (optional header)
// @Tags accounts
// @Accept json
// @Accept text/csv
// @Produce json
// @Success 201 {array} models.Account
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/accounts/bulk [post]
func (h *AccountHandler) BulkCreateAccounts(c *gin.Context) {
	var (
		input []models.AccountInput
		err   error
	)
	if c.ContentType() == "text/csv" {
		input, err = parseAccountsCSV(c.Request.Body)
	} else {
		err = c.ShouldBindJSON(&input)
	}
	if err != nil {
		h.logger.Warn("Invalid bulk accounts body", zap.Error(err))
		badRequest(c, "invalid_request", err.Error())
		return
	}

	c.JSON(http.StatusCreated, h.service.BulkAddAccounts(c.Request.Context(), input))
}

// DeleteAccount godoc
// @Summary Delete an account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} ActionResponse
// @Router /api/v1/accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	if h.service.DeleteAccount(c.Request.Context(), c.Param("id")) {
		c.JSON(http.StatusOK, ActionResponse{Message: "Account deleted", Found: true})
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Message: "Account not found, nothing changed"})
}

var errCSVRow = errors.New("each row must be username,password")

// parseAccountsCSV читает строки username,password; первая строка-заголовок пропускается
func parseAccountsCSV(r io.Reader) ([]models.AccountInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	out := []models.AccountInput{}
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		if line == 1 && len(record) == 2 &&
			strings.EqualFold(record[0], "username") && strings.EqualFold(record[1], "password") {
			continue
		}
		if len(record) != 2 || record[0] == "" || record[1] == "" {
			return nil, fmt.Errorf("line %d: %w", line, errCSVRow)
		}
		out = append(out, models.AccountInput{Username: record[0], Password: record[1]})
	}
	return out, nil
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// SavingsHandler handles savings-related requests.
type SavingsHandler struct {
	savingsService services.SavingsServicer
	auditService   services.AuditServicer
}

// NewSavingsHandler creates a new SavingsHandler.
func NewSavingsHandler(savingsService services.SavingsServicer, auditService services.AuditServicer) *SavingsHandler {
	return &SavingsHandler{savingsService: savingsService, auditService: auditService}
}

// SavingsRequest represents the request payload for recording savings.
type SavingsRequest struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CreateSavings handles recording a savings entry.
// @Summary     Record savings
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SavingsRequest true "Savings amount"
// @Success     201 {object} models.Savings
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /savings [post]
func (h *SavingsHandler) CreateSavings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SavingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	savings, err := h.savingsService.CreateSavings(c.Request.Context(), userID, req.TotalAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SAVINGS", "savings", savings.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.TotalAmount})

	c.JSON(http.StatusCreated, gin.H{"savings": savings})
}

// GetSavings handles listing savings along with their total.
// @Summary     List savings
// @Tags        savings
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Savings]
// @Router      /savings [get]
func (h *SavingsHandler) GetSavings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.savingsService.GetUserSavings(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.savingsService.TotalSavings(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        result.Data,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total_items": result.TotalItems,
		"total_pages": result.TotalPages,
		"total":       total,
	})
}

// UpdateSavings handles changing a savings entry's amount.
// @Summary     Update savings
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Savings ID"
// @Param       request body SavingsRequest true "Savings amount"
// @Success     200 {object} models.Savings
// @Failure     404 {object} ErrorResponse "Savings not found"
// @Router      /savings/{id} [put]
func (h *SavingsHandler) UpdateSavings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	savingsID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SavingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	savings, err := h.savingsService.UpdateSavings(c.Request.Context(), userID, savingsID, req.TotalAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SAVINGS", "savings", savingsID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"savings": savings})
}

// DeleteSavings handles deleting a savings entry.
// @Summary     Delete savings
// @Tags        savings
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Savings ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Savings not found"
// @Router      /savings/{id} [delete]
func (h *SavingsHandler) DeleteSavings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	savingsID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.savingsService.DeleteSavings(c.Request.Context(), userID, savingsID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_SAVINGS", "savings", savingsID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Savings deleted successfully"})
}

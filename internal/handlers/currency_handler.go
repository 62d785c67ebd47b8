package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
)

// CurrencyConverter converts an amount between two ISO 4217 currencies.
type CurrencyConverter interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error)
}

// CurrencyHandler serves currency conversion.
type CurrencyHandler struct {
	converter CurrencyConverter
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(converter CurrencyConverter) *CurrencyHandler {
	return &CurrencyHandler{converter: converter}
}

// ConvertQuery holds the query parameters of a conversion.
type ConvertQuery struct {
	From   string `form:"from" binding:"required,iso4217"`
	To     string `form:"to" binding:"required,iso4217"`
	Amount string `form:"amount" binding:"required"`
}

// ConvertResponse is the result of a conversion.
type ConvertResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Result decimal.Decimal `json:"result"`
}

// Convert handles converting an amount using the latest exchange rates.
// @Summary     Convert currency
// @Tags        currency
// @Produce     json
// @Security    BearerAuth
// @Param       from   query string true "Source currency code"
// @Param       to     query string true "Target currency code"
// @Param       amount query string true "Amount to convert"
// @Success     200 {object} ConvertResponse
// @Failure     400 {object} ErrorResponse "Invalid currency or amount"
// @Failure     502 {object} ErrorResponse "Rates unavailable"
// @Router      /currency/convert [get]
func (h *CurrencyHandler) Convert(c *gin.Context) {
	var q ConvertQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := decimal.NewFromString(q.Amount)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid amount"))
		return
	}

	from, to := strings.ToUpper(q.From), strings.ToUpper(q.To)
	result, err := h.converter.Convert(c.Request.Context(), from, to, amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ConvertResponse{From: from, To: to, Amount: amount, Result: result})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VeritasForge/snowball/internal/finance"
	"github.com/VeritasForge/snowball/internal/models"
	"github.com/VeritasForge/snowball/internal/services"
)

// FinanceHandler handles symbol lookup
type FinanceHandler struct {
	portfolioSvc *services.PortfolioService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(portfolioSvc *services.PortfolioService) *FinanceHandler {
	return &FinanceHandler{portfolioSvc: portfolioSvc}
}

// Lookup handles GET /finance/lookup?code=...
func (h *FinanceHandler) Lookup(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "code query parameter is required",
		})
		return
	}

	result, err := h.portfolioSvc.Lookup(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, finance.ErrNoQuote) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "no quote data for code",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VeritasForge/snowball/internal/middleware"
	"github.com/VeritasForge/snowball/internal/models"
	"github.com/VeritasForge/snowball/internal/repository"
	"github.com/VeritasForge/snowball/internal/services"
)

// AssetHandler handles asset CRUD, trades and bulk price refresh
type AssetHandler struct {
	portfolioSvc *services.PortfolioService
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(portfolioSvc *services.PortfolioService) *AssetHandler {
	return &AssetHandler{portfolioSvc: portfolioSvc}
}

// Create handles POST /assets
func (h *AssetHandler) Create(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req models.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	asset, err := h.portfolioSvc.CreateAsset(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "account not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, asset)
}

// Update handles PATCH /assets/:id
func (h *AssetHandler) Update(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	assetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid asset ID",
		})
		return
	}

	var patch models.AssetPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	acc, err := h.portfolioSvc.UpdateAsset(c.Request.Context(), userID, assetID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "asset not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, acc)
}

// Delete handles DELETE /assets/:id
func (h *AssetHandler) Delete(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	assetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid asset ID",
		})
		return
	}

	if err := h.portfolioSvc.DeleteAsset(c.Request.Context(), userID, assetID); err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "asset not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Execute handles POST /assets/execute
func (h *AssetHandler) Execute(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req models.ExecuteTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	acc, err := h.portfolioSvc.ExecuteTrade(c.Request.Context(), userID, req.AssetID, req.ActionQuantity, req.Price)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAssetNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "asset not found",
			})
		case errors.Is(err, services.ErrInsufficientCash), errors.Is(err, services.ErrOversell):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "internal_error",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, acc)
}

// UpdateAllPrices handles POST /assets/update-all-prices
func (h *AssetHandler) UpdateAllPrices(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	count, err := h.portfolioSvc.UpdateAllPrices(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.UpdateAllPricesResponse{UpdatedCount: count})
}

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

// AccountHandler handles account CRUD and guest-portfolio sync
type AccountHandler struct {
	portfolioSvc *services.PortfolioService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(portfolioSvc *services.PortfolioService) *AccountHandler {
	return &AccountHandler{portfolioSvc: portfolioSvc}
}

// List handles GET /accounts
func (h *AccountHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	accounts, err := h.portfolioSvc.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	c.JSON(http.StatusOK, accounts)
}

// Create handles POST /accounts
func (h *AccountHandler) Create(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	acc, err := h.portfolioSvc.CreateAccount(c.Request.Context(), userID, req.Name, req.Cash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, acc)
}

// Update handles PATCH /accounts/:id
func (h *AccountHandler) Update(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid account ID",
		})
		return
	}

	var patch models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	acc, err := h.portfolioSvc.UpdateAccount(c.Request.Context(), userID, accountID, patch)
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

	c.JSON(http.StatusOK, acc)
}

// Delete handles DELETE /accounts/:id
func (h *AccountHandler) Delete(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid account ID",
		})
		return
	}

	if err := h.portfolioSvc.DeleteAccount(c.Request.Context(), userID, accountID); err != nil {
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

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Sync handles POST /users/sync
func (h *AccountHandler) Sync(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req models.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	accounts, err := h.portfolioSvc.SyncGuestPortfolio(c.Request.Context(), userID, req.Accounts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	c.JSON(http.StatusOK, accounts)
}

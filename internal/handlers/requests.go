package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/services"
)

type RequestHandler struct {
	ledger *services.LedgerService
}

func NewRequestHandler(ledger *services.LedgerService) *RequestHandler {
	return &RequestHandler{ledger: ledger}
}

type depositRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Proof  string  `json:"proof"`
}

func (h *RequestHandler) CreateDeposit(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	created, err := h.ledger.CreateDeposit(c.Request.Context(), accountID, req.Amount, req.Proof)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": created})
}

type withdrawalRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	Destination string  `json:"destination" binding:"required"`
}

func (h *RequestHandler) CreateWithdrawal(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	created, err := h.ledger.CreateWithdrawal(c.Request.Context(), accountID, req.Amount, req.Destination)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": created})
}

type upgradeRequest struct {
	Plan models.Plan `json:"plan" binding:"required"`
}

func (h *RequestHandler) CreateUpgrade(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if !req.Plan.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	created, err := h.ledger.CreateUpgrade(c.Request.Context(), accountID, req.Plan)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": created})
}

func (h *RequestHandler) CreatePasswordReset(c *gin.Context) {
	accountID := c.GetString("account_id")

	created, err := h.ledger.CreatePasswordReset(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": created})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/services"
)

type AdminHandler struct {
	ledger   *services.LedgerService
	settings *services.DifficultySettings
}

func NewAdminHandler(ledger *services.LedgerService, settings *services.DifficultySettings) *AdminHandler {
	return &AdminHandler{
		ledger:   ledger,
		settings: settings,
	}
}

func (h *AdminHandler) ListPending(c *gin.Context) {
	kind := models.RequestKind(c.Query("kind"))

	pending, err := h.ledger.ListPending(c.Request.Context(), kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": pending,
		"count":    len(pending),
	})
}

func (h *AdminHandler) Approve(c *gin.Context) {
	requestID := c.Param("id")

	resolved, err := h.ledger.Approve(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": resolved})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) Reject(c *gin.Context) {
	requestID := c.Param("id")

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	resolved, err := h.ledger.Reject(c.Request.Context(), requestID, req.Reason)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": resolved})
}

type difficultyRequest struct {
	Difficulty     models.Difficulty `json:"difficulty" binding:"required"`
	WinProbability float64           `json:"win_probability"`
}

func (h *AdminHandler) SetDifficulty(c *gin.Context) {
	var req difficultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.settings.SetWinProbability(req.Difficulty, req.WinProbability); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Difficulty or probability out of range"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"win_probabilities": h.settings.Snapshot()})
}

func (h *AdminHandler) GetDifficulty(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"win_probabilities": h.settings.Snapshot()})
}

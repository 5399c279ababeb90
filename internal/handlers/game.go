package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/services"
	"rewards-miniapp-backend/internal/store"
)

type GameHandler struct {
	engine *services.OutcomeEngine
	rounds store.RoundStore
}

func NewGameHandler(engine *services.OutcomeEngine, rounds store.RoundStore) *GameHandler {
	return &GameHandler{
		engine: engine,
		rounds: rounds,
	}
}

type playRequest struct {
	GameType   models.GameType   `json:"game_type" binding:"required"`
	Stake      float64           `json:"stake" binding:"required"`
	Difficulty models.Difficulty `json:"difficulty" binding:"required"`
}

func (h *GameHandler) Play(c *gin.Context) {
	accountID := c.GetString("account_id")

	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if !req.GameType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown game type"})
		return
	}
	if !req.Difficulty.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown difficulty"})
		return
	}

	outcome, err := h.engine.Play(c.Request.Context(), accountID, req.GameType, req.Stake, req.Difficulty)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome": outcome,
	})
}

func (h *GameHandler) History(c *gin.Context) {
	accountID := c.GetString("account_id")

	rounds, err := h.rounds.RecentRounds(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rounds": rounds,
	})
}

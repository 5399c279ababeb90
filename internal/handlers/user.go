package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/services"
)

type UserHandler struct {
	accounts *services.AccountService
}

func NewUserHandler(accounts *services.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

func (h *UserHandler) GetCurrentAccount(c *gin.Context) {
	accountID := c.GetString("account_id")

	acct, err := h.accounts.Get(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": acct,
		"balance": models.BalanceResponse{
			Balance:     acct.Balance,
			Plan:        acct.Plan,
			TotalEarned: acct.TotalEarned,
			Threshold:   acct.Plan.WithdrawalThreshold(),
		},
	})
}

func (h *UserHandler) GetBalance(c *gin.Context) {
	accountID := c.GetString("account_id")

	acct, err := h.accounts.Get(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.BalanceResponse{
		Balance:     acct.Balance,
		Plan:        acct.Plan,
		TotalEarned: acct.TotalEarned,
		Threshold:   acct.Plan.WithdrawalThreshold(),
	})
}

func (h *UserHandler) Claim(c *gin.Context) {
	accountID := c.GetString("account_id")

	acct, amount, err := h.accounts.Claim(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"claimed":     amount,
		"new_balance": acct.Balance,
	})
}

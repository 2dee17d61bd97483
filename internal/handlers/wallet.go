package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dicebet-backend/internal/services"
)

type WalletHandler struct {
	gameEngine   *services.GameEngine
	redisService *services.RedisService
}

func NewWalletHandler(gameEngine *services.GameEngine, redisService *services.RedisService) *WalletHandler {
	return &WalletHandler{
		gameEngine:   gameEngine,
		redisService: redisService,
	}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := c.GetString("user_id")

	user, err := h.redisService.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch balance",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"balance":          user.WalletBalance,
		"lockedBalance":    user.LockedBalance,
		"availableBalance": user.WalletBalance,
	})
}

func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > services.MaxHistoryLimit {
		limit = services.DefaultHistoryLimit
	}

	transactions, err := h.redisService.GetUserTransactions(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch transactions",
		})
		return
	}

	response := make([]gin.H, 0, len(transactions))
	for _, tx := range transactions {
		response = append(response, gin.H{
			"id":          tx.ID,
			"type":        tx.Type,
			"amount":      tx.Amount,
			"status":      tx.Status,
			"description": tx.Description,
			"unlockDate":  tx.UnlockDate,
			"createdAt":   tx.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": response,
	})
}

// GetLockedBalance reports how much of the nominal balance is still inside
// the 24-hour winnings lock. Display only; bets check the nominal balance.
func (h *WalletHandler) GetLockedBalance(c *gin.Context) {
	userID := c.GetString("user_id")

	locked, available, lockedTxs, err := h.gameEngine.LockedBalance(c.Request.Context(), userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch locked balance",
		})
		return
	}

	lockedTransactions := make([]gin.H, 0, len(lockedTxs))
	for _, tx := range lockedTxs {
		lockedTransactions = append(lockedTransactions, gin.H{
			"amount":     tx.Amount,
			"unlockDate": tx.UnlockDate,
			"createdAt":  tx.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"lockedBalance":      locked,
		"availableBalance":   available,
		"totalBalance":       locked + available,
		"lockedTransactions": lockedTransactions,
	})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dicebet-backend/internal/models"
	"dicebet-backend/internal/services"
)

type GameHandler struct {
	gameEngine   *services.GameEngine
	redisService *services.RedisService
}

func NewGameHandler(gameEngine *services.GameEngine, redisService *services.RedisService) *GameHandler {
	return &GameHandler{
		gameEngine:   gameEngine,
		redisService: redisService,
	}
}

func (h *GameHandler) Play(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	result, err := h.gameEngine.PlayWager(c.Request.Context(), userID, req.BetAmount, req.Prediction)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Insufficient balance"})
		case errors.Is(err, services.ErrInvalidStake), errors.Is(err, services.ErrInvalidPrediction):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Game play failed"})
		}
		return
	}

	message := fmt.Sprintf("Sorry, you lost. The dice showed %d (%s)", result.DiceRoll, result.Result)
	if result.Won {
		message = fmt.Sprintf("Congratulations! You won $%.2f! (Unlocks in 24 hours)", result.WinAmount)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"diceRoll":   result.DiceRoll,
		"result":     result.Result,
		"won":        result.Won,
		"winAmount":  result.WinAmount,
		"newBalance": result.NewBalance,
		"message":    message,
	})
}

// Watch rolls the die without a stake or an account. Public route.
func (h *GameHandler) Watch(c *gin.Context) {
	roll, result := h.gameEngine.Watch()

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"diceRoll": roll,
		"result":   result,
		"mode":     "watch",
		"message":  fmt.Sprintf("Dice rolled %d (%s). Login and play for real!", roll, result),
	})
}

func (h *GameHandler) GetHistory(c *gin.Context) {
	userID := c.GetString("user_id")

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > services.MaxHistoryLimit {
		limit = services.DefaultHistoryLimit
	}

	games, err := h.redisService.GetGameHistory(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch game history",
		})
		return
	}

	history := make([]gin.H, 0, len(games))
	for _, game := range games {
		history = append(history, gin.H{
			"id":         game.ID,
			"betAmount":  game.BetAmount,
			"prediction": game.Prediction,
			"diceRoll":   game.DiceRoll,
			"result":     game.Result,
			"won":        game.Won,
			"winAmount":  game.WinAmount,
			"createdAt":  game.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
	})
}

func (h *GameHandler) GetStats(c *gin.Context) {
	userID := c.GetString("user_id")

	stats, err := h.gameEngine.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch statistics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

package services

import "dicebet-backend/internal/models"

type Broadcaster interface {
	BroadcastDiceResult(roll int, result models.Prediction, mode string)
	BroadcastBalanceUpdate(userID string, balance float64)
}

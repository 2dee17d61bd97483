package models

import "time"

type Prediction string

const (
	PredictionOdd  Prediction = "odd"
	PredictionEven Prediction = "even"
)

// GameRecord is one settled wager: stake, the player's call, the roll and
// its parity, and the payout (0 when lost).
type GameRecord struct {
	ID         string     `json:"id" redis:"id"`
	UserID     string     `json:"userId" redis:"user_id"`
	BetAmount  float64    `json:"betAmount" redis:"bet_amount"`
	Prediction Prediction `json:"prediction" redis:"prediction"`
	DiceRoll   int        `json:"diceRoll" redis:"dice_roll"`
	Result     Prediction `json:"result" redis:"result"`
	Won        bool       `json:"won" redis:"won"`
	WinAmount  float64    `json:"winAmount" redis:"win_amount"`
	CreatedAt  time.Time  `json:"createdAt" redis:"created_at"`
}

type PlayRequest struct {
	BetAmount  float64    `json:"betAmount" binding:"required"`
	Prediction Prediction `json:"prediction" binding:"required"`
}

type PlayResult struct {
	DiceRoll   int        `json:"diceRoll"`
	Result     Prediction `json:"result"`
	Won        bool       `json:"won"`
	WinAmount  float64    `json:"winAmount"`
	NewBalance float64    `json:"newBalance"`
}

type Stats struct {
	TotalGames int     `json:"totalGames"`
	GamesWon   int     `json:"gamesWon"`
	GamesLost  int     `json:"gamesLost"`
	WinRate    float64 `json:"winRate"`
	TotalBet   float64 `json:"totalBet"`
	TotalWon   float64 `json:"totalWon"`
	NetProfit  float64 `json:"netProfit"`
}

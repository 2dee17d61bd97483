package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const MinBetAmount = 1.0

// WinningsLockPeriod is how long a win stays marked as locked for display.
const WinningsLockPeriod = 24 * time.Hour

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateGameID() string {
	return fmt.Sprintf("game_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func (p Prediction) Valid() bool {
	return p == PredictionOdd || p == PredictionEven
}

// ParityOf classifies a die value: even iff divisible by 2.
func ParityOf(roll int) Prediction {
	if roll%2 == 0 {
		return PredictionEven
	}
	return PredictionOdd
}

func (r *PlayRequest) Validate() error {
	if r.BetAmount < MinBetAmount {
		return fmt.Errorf("bet amount must be at least $%.0f", MinBetAmount)
	}
	if !r.Prediction.Valid() {
		return fmt.Errorf("prediction must be odd or even")
	}
	return nil
}

// Round2 rounds to 2 decimal places for display. Underlying sums keep full
// precision until the final formatting step.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

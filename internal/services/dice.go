package services

import (
	"math/rand"

	"dicebet-backend/internal/models"
)

// Outcome is the result of one settled draw. Payout is 2x the stake on a
// correct call, 0 otherwise.
type Outcome struct {
	Roll   int
	Result models.Prediction
	Won    bool
	Payout float64
}

// DiceEngine draws one uniform d6 value and derives the parity outcome. It
// has no side effects beyond consuming the random source.
type DiceEngine struct {
	roll func() int
}

func NewDiceEngine() *DiceEngine {
	return &DiceEngine{
		roll: func() int {
			return rand.Intn(6) + 1
		},
	}
}

// Roll is the free watch-mode draw: no stake, no account, no persistence.
func (e *DiceEngine) Roll() (int, models.Prediction) {
	roll := e.roll()
	return roll, models.ParityOf(roll)
}

func (e *DiceEngine) Settle(stake float64, prediction models.Prediction) Outcome {
	roll, result := e.Roll()

	won := prediction == result

	var payout float64
	if won {
		payout = stake * 2
	}

	return Outcome{
		Roll:   roll,
		Result: result,
		Won:    won,
		Payout: payout,
	}
}

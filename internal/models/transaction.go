package models

import "time"

type TransactionType string

const (
	TransactionTypeBet        TransactionType = "bet"
	TransactionTypeWin        TransactionType = "win"
	TransactionTypeLoss       TransactionType = "loss"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an append-only ledger entry. Win entries carry an unlock
// date 24 hours after creation; bet entries never do.
type Transaction struct {
	ID          string            `json:"id" redis:"id"`
	UserID      string            `json:"userId" redis:"user_id"`
	Type        TransactionType   `json:"type" redis:"type"`
	Amount      float64           `json:"amount" redis:"amount"`
	Status      TransactionStatus `json:"status" redis:"status"`
	UnlockDate  *time.Time        `json:"unlockDate,omitempty" redis:"unlock_date"`
	Description string            `json:"description" redis:"description"`
	CreatedAt   time.Time         `json:"createdAt" redis:"created_at"`
}

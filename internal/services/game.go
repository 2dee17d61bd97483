package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dicebet-backend/internal/models"
)

var (
	// ErrInsufficientFunds is returned when the stake exceeds the nominal
	// balance at settlement time.
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidStake      = errors.New("bet amount must be at least $1")
	ErrInvalidPrediction = errors.New("prediction must be odd or even")
	// ErrSettlementFailed wraps unexpected store failures during the
	// debit/credit/append sequence.
	ErrSettlementFailed = errors.New("settlement failed")
)

// LedgerStore is the persistence surface the game engine needs. Implemented
// by RedisService.
type LedgerStore interface {
	GetUser(userID string) (*models.User, error)
	SettleWager(userID string, stake, payout float64) (float64, error)
	AppendSettlement(betTx, winTx *models.Transaction, record *models.GameRecord) error
	GetWinTransactionsSince(userID string, since time.Time) ([]*models.Transaction, error)
	GetAllGameRecords(userID string) ([]*models.GameRecord, error)
}

type GameEngine struct {
	store LedgerStore
	dice  *DiceEngine

	broadcaster Broadcaster

	mu           sync.Mutex
	accountLocks map[string]*sync.Mutex
}

func NewGameEngine(store LedgerStore, dice *DiceEngine) *GameEngine {
	return &GameEngine{
		store:        store,
		dice:         dice,
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// SetBroadcaster wires the live roll feed. Optional; nil means no feed.
func (ge *GameEngine) SetBroadcaster(b Broadcaster) {
	ge.broadcaster = b
}

// accountLock serializes balance mutations per account, so concurrent plays
// from the same user settle one at a time.
func (ge *GameEngine) accountLock(userID string) *sync.Mutex {
	ge.mu.Lock()
	defer ge.mu.Unlock()

	lock, ok := ge.accountLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		ge.accountLocks[userID] = lock
	}

	return lock
}

// PlayWager settles one wager: validates the stake and prediction, draws the
// die, then debits the stake and credits any payout in a single balance
// mutation before appending the bet entry, the win entry and the game record
// atomically. Only the nominal balance gates the bet; the 24-hour lock is
// informational.
func (ge *GameEngine) PlayWager(ctx context.Context, userID string, stake float64, prediction models.Prediction) (*models.PlayResult, error) {
	if stake < models.MinBetAmount {
		return nil, ErrInvalidStake
	}
	if !prediction.Valid() {
		return nil, ErrInvalidPrediction
	}

	lock := ge.accountLock(userID)
	lock.Lock()
	defer lock.Unlock()

	outcome := ge.dice.Settle(stake, prediction)

	newBalance, err := ge.store.SettleWager(userID, stake, outcome.Payout)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	now := time.Now()

	betTx := &models.Transaction{
		ID:          models.GenerateTransactionID(),
		UserID:      userID,
		Type:        models.TransactionTypeBet,
		Amount:      stake,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Bet on %s", prediction),
		CreatedAt:   now,
	}

	var winTx *models.Transaction
	if outcome.Won {
		unlockDate := now.Add(models.WinningsLockPeriod)
		winTx = &models.Transaction{
			ID:          models.GenerateTransactionID(),
			UserID:      userID,
			Type:        models.TransactionTypeWin,
			Amount:      outcome.Payout,
			Status:      models.TransactionStatusCompleted,
			UnlockDate:  &unlockDate,
			Description: fmt.Sprintf("Won on %s (dice: %d)", prediction, outcome.Roll),
			CreatedAt:   now,
		}
	}

	record := &models.GameRecord{
		ID:         models.GenerateGameID(),
		UserID:     userID,
		BetAmount:  stake,
		Prediction: prediction,
		DiceRoll:   outcome.Roll,
		Result:     outcome.Result,
		Won:        outcome.Won,
		WinAmount:  outcome.Payout,
		CreatedAt:  now,
	}

	if err := ge.store.AppendSettlement(betTx, winTx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	if ge.broadcaster != nil {
		ge.broadcaster.BroadcastDiceResult(outcome.Roll, outcome.Result, "play")
		ge.broadcaster.BroadcastBalanceUpdate(userID, newBalance)
	}

	return &models.PlayResult{
		DiceRoll:   outcome.Roll,
		Result:     outcome.Result,
		Won:        outcome.Won,
		WinAmount:  outcome.Payout,
		NewBalance: newBalance,
	}, nil
}

// Watch performs the free draw for unauthenticated users: same die, no
// stake, nothing persisted.
func (ge *GameEngine) Watch() (int, models.Prediction) {
	roll, result := ge.dice.Roll()

	if ge.broadcaster != nil {
		ge.broadcaster.BroadcastDiceResult(roll, result, "watch")
	}

	return roll, result
}

// LockedBalance sums win entries created within the last 24 hours whose
// unlock date is still in the future, and derives the available balance.
// Read-only; does not limit spending.
func (ge *GameEngine) LockedBalance(ctx context.Context, userID string, now time.Time) (locked, available float64, lockedTxs []*models.Transaction, err error) {
	user, err := ge.store.GetUser(userID)
	if err != nil {
		return 0, 0, nil, err
	}

	wins, err := ge.store.GetWinTransactionsSince(userID, now.Add(-models.WinningsLockPeriod))
	if err != nil {
		return 0, 0, nil, err
	}

	for _, tx := range wins {
		if tx.UnlockDate != nil && tx.UnlockDate.After(now) {
			locked += tx.Amount
			lockedTxs = append(lockedTxs, tx)
		}
	}

	return locked, user.WalletBalance - locked, lockedTxs, nil
}

// Stats scans the user's full game history and derives the summary metrics.
// Money totals and the win rate are rounded to 2 decimals for display.
func (ge *GameEngine) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	records, err := ge.store.GetAllGameRecords(userID)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{}

	var totalBet, totalWon float64
	for _, record := range records {
		stats.TotalGames++
		if record.Won {
			stats.GamesWon++
		}
		totalBet += record.BetAmount
		totalWon += record.WinAmount
	}

	stats.GamesLost = stats.TotalGames - stats.GamesWon

	if stats.TotalGames > 0 {
		stats.WinRate = models.Round2(float64(stats.GamesWon) / float64(stats.TotalGames) * 100)
	}

	stats.TotalBet = models.Round2(totalBet)
	stats.TotalWon = models.Round2(totalWon)
	stats.NetProfit = models.Round2(totalWon - totalBet)

	return stats, nil
}

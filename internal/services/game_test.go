package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicebet-backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory LedgerStore mock. Lets us test the real engine logic without a
// running Redis.
// ---------------------------------------------------------------------------

type mockStore struct {
	mu           sync.Mutex
	users        map[string]*models.User
	transactions []*models.Transaction
	records      []*models.GameRecord
	appendErr    error
}

func newMockStore(users ...*models.User) *mockStore {
	m := &mockStore{users: make(map[string]*models.User)}
	for _, u := range users {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *mockStore) GetUser(userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockStore) SettleWager(userID string, stake, payout float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	if u.WalletBalance < stake {
		return 0, ErrInsufficientFunds
	}
	u.WalletBalance = u.WalletBalance - stake + payout
	return u.WalletBalance, nil
}

func (m *mockStore) AppendSettlement(betTx, winTx *models.Transaction, record *models.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.transactions = append(m.transactions, betTx)
	if winTx != nil {
		m.transactions = append(m.transactions, winTx)
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockStore) GetWinTransactionsSince(userID string, since time.Time) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var wins []*models.Transaction
	for _, tx := range m.transactions {
		if tx.UserID == userID && tx.Type == models.TransactionTypeWin && !tx.CreatedAt.Before(since) {
			wins = append(wins, tx)
		}
	}
	return wins, nil
}

func (m *mockStore) GetAllGameRecords(userID string) ([]*models.GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []*models.GameRecord
	for _, r := range m.records {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	return records, nil
}

func testUser(balance float64) *models.User {
	return &models.User{
		ID:            "user-1",
		Username:      "player",
		Email:         "player@example.com",
		WalletBalance: balance,
		CreatedAt:     time.Now(),
	}
}

// ---------------------------------------------------------------------------
// Settlement
// ---------------------------------------------------------------------------

func TestPlayWagerWin(t *testing.T) {
	store := newMockStore(testUser(100))
	engine := NewGameEngine(store, fixedDice(4))

	before := time.Now()
	result, err := engine.PlayWager(context.Background(), "user-1", 10, models.PredictionEven)
	require.NoError(t, err)

	assert.Equal(t, 4, result.DiceRoll)
	assert.Equal(t, models.PredictionEven, result.Result)
	assert.True(t, result.Won)
	assert.Equal(t, 20.0, result.WinAmount)
	assert.Equal(t, 110.0, result.NewBalance)

	require.Len(t, store.transactions, 2)

	betTx := store.transactions[0]
	assert.Equal(t, models.TransactionTypeBet, betTx.Type)
	assert.Equal(t, 10.0, betTx.Amount)
	assert.Equal(t, models.TransactionStatusCompleted, betTx.Status)
	assert.Nil(t, betTx.UnlockDate)

	winTx := store.transactions[1]
	assert.Equal(t, models.TransactionTypeWin, winTx.Type)
	assert.Equal(t, 20.0, winTx.Amount)
	require.NotNil(t, winTx.UnlockDate)
	assert.Equal(t, winTx.CreatedAt.Add(24*time.Hour), *winTx.UnlockDate)
	assert.False(t, winTx.CreatedAt.Before(before))

	require.Len(t, store.records, 1)
	record := store.records[0]
	assert.True(t, record.Won)
	assert.Equal(t, 10.0, record.BetAmount)
	assert.Equal(t, 20.0, record.WinAmount)
	assert.Equal(t, 4, record.DiceRoll)
	assert.Equal(t, models.PredictionEven, record.Prediction)
}

func TestPlayWagerLoss(t *testing.T) {
	store := newMockStore(testUser(100))
	engine := NewGameEngine(store, fixedDice(3))

	result, err := engine.PlayWager(context.Background(), "user-1", 10, models.PredictionEven)
	require.NoError(t, err)

	assert.False(t, result.Won)
	assert.Equal(t, models.PredictionOdd, result.Result)
	assert.Equal(t, 0.0, result.WinAmount)
	assert.Equal(t, 90.0, result.NewBalance)

	// Only the bet entry; no win entry on a loss.
	require.Len(t, store.transactions, 1)
	assert.Equal(t, models.TransactionTypeBet, store.transactions[0].Type)

	require.Len(t, store.records, 1)
	assert.False(t, store.records[0].Won)
	assert.Equal(t, 0.0, store.records[0].WinAmount)
}

func TestPlayWagerInsufficientFunds(t *testing.T) {
	store := newMockStore(testUser(5))
	engine := NewGameEngine(store, fixedDice(4))

	_, err := engine.PlayWager(context.Background(), "user-1", 10, models.PredictionEven)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	user, _ := store.GetUser("user-1")
	assert.Equal(t, 5.0, user.WalletBalance)
	assert.Empty(t, store.transactions)
	assert.Empty(t, store.records)
}

func TestPlayWagerValidation(t *testing.T) {
	store := newMockStore(testUser(100))
	engine := NewGameEngine(store, fixedDice(4))

	_, err := engine.PlayWager(context.Background(), "user-1", 0.5, models.PredictionEven)
	assert.ErrorIs(t, err, ErrInvalidStake)

	_, err = engine.PlayWager(context.Background(), "user-1", 10, "seven")
	assert.ErrorIs(t, err, ErrInvalidPrediction)

	assert.Empty(t, store.transactions)
	assert.Empty(t, store.records)
}

func TestPlayWagerUserNotFound(t *testing.T) {
	engine := NewGameEngine(newMockStore(), fixedDice(4))

	_, err := engine.PlayWager(context.Background(), "missing", 10, models.PredictionEven)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPlayWagerAppendFailure(t *testing.T) {
	store := newMockStore(testUser(100))
	store.appendErr = errors.New("redis down")
	engine := NewGameEngine(store, fixedDice(4))

	_, err := engine.PlayWager(context.Background(), "user-1", 10, models.PredictionEven)
	assert.ErrorIs(t, err, ErrSettlementFailed)
}

func TestPlayWagerBalanceInvariant(t *testing.T) {
	store := newMockStore(testUser(1000))
	engine := NewGameEngine(store, NewDiceEngine())

	for i := 0; i < 50; i++ {
		user, err := store.GetUser("user-1")
		require.NoError(t, err)
		oldBalance := user.WalletBalance

		stake := 7.5
		result, err := engine.PlayWager(context.Background(), "user-1", stake, models.PredictionOdd)
		require.NoError(t, err)

		want := oldBalance - stake
		if result.Won {
			want += 2 * stake
		}
		assert.Equal(t, want, result.NewBalance)
	}
}

func TestConcurrentWagersSerialized(t *testing.T) {
	store := newMockStore(testUser(50))
	engine := NewGameEngine(store, fixedDice(1)) // odd; every bet on even loses

	var wg sync.WaitGroup
	errCh := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.PlayWager(context.Background(), "user-1", 10, models.PredictionEven)
			errCh <- err
		}()
	}

	wg.Wait()
	close(errCh)

	var succeeded, rejected int
	for err := range errCh {
		if err == nil {
			succeeded++
		} else if errors.Is(err, ErrInsufficientFunds) {
			rejected++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// 50 of balance funds exactly five 10-unit losing bets; no over-debit.
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, rejected)

	user, _ := store.GetUser("user-1")
	assert.Equal(t, 0.0, user.WalletBalance)
	assert.Len(t, store.records, 5)
}

// ---------------------------------------------------------------------------
// Lock window
// ---------------------------------------------------------------------------

func TestLockedBalanceWindow(t *testing.T) {
	store := newMockStore(testUser(100))
	engine := NewGameEngine(store, fixedDice(4))

	result, err := engine.PlayWager(context.Background(), "user-1", 10, models.PredictionEven)
	require.NoError(t, err)
	require.True(t, result.Won)

	now := time.Now()

	locked, available, lockedTxs, err := engine.LockedBalance(context.Background(), "user-1", now)
	require.NoError(t, err)
	assert.Equal(t, 20.0, locked)
	assert.Equal(t, 90.0, available)
	require.Len(t, lockedTxs, 1)
	assert.Equal(t, 20.0, lockedTxs[0].Amount)

	// The same entry 25 hours later is past its unlock date.
	locked, available, lockedTxs, err = engine.LockedBalance(context.Background(), "user-1", now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0.0, locked)
	assert.Equal(t, 110.0, available)
	assert.Empty(t, lockedTxs)
}

func TestLockedBalanceIdempotent(t *testing.T) {
	store := newMockStore(testUser(100))
	engine := NewGameEngine(store, fixedDice(2))

	_, err := engine.PlayWager(context.Background(), "user-1", 10, models.PredictionEven)
	require.NoError(t, err)

	now := time.Now()

	locked1, available1, _, err := engine.LockedBalance(context.Background(), "user-1", now)
	require.NoError(t, err)
	locked2, available2, _, err := engine.LockedBalance(context.Background(), "user-1", now)
	require.NoError(t, err)

	assert.Equal(t, locked1, locked2)
	assert.Equal(t, available1, available2)
}

// ---------------------------------------------------------------------------
// Statistics
// ---------------------------------------------------------------------------

func TestStatsEmpty(t *testing.T) {
	engine := NewGameEngine(newMockStore(testUser(0)), NewDiceEngine())

	stats, err := engine.Stats(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalGames)
	assert.Equal(t, 0, stats.GamesWon)
	assert.Equal(t, 0.0, stats.WinRate)
	assert.Equal(t, 0.0, stats.NetProfit)
}

func TestStatsAggregation(t *testing.T) {
	store := newMockStore(testUser(100))
	engine := NewGameEngine(store, NewDiceEngine())

	now := time.Now()
	rolls := []struct {
		roll int
		won  bool
	}{
		{4, true},
		{3, false},
		{5, false},
		{1, false},
	}

	for i, r := range rolls {
		winAmount := 0.0
		if r.won {
			winAmount = 20
		}
		store.records = append(store.records, &models.GameRecord{
			ID:         models.GenerateGameID(),
			UserID:     "user-1",
			BetAmount:  10,
			Prediction: models.PredictionEven,
			DiceRoll:   r.roll,
			Result:     models.ParityOf(r.roll),
			Won:        r.won,
			WinAmount:  winAmount,
			CreatedAt:  now.Add(time.Duration(i) * time.Second),
		})
	}

	stats, err := engine.Stats(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalGames)
	assert.Equal(t, 1, stats.GamesWon)
	assert.Equal(t, 3, stats.GamesLost)
	assert.Equal(t, 25.0, stats.WinRate)
	assert.Equal(t, 40.0, stats.TotalBet)
	assert.Equal(t, 20.0, stats.TotalWon)
	assert.Equal(t, -20.0, stats.NetProfit)

	// Read-only: repeated calls return the same values.
	again, err := engine.Stats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, stats, again)
}

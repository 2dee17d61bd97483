package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"dicebet-backend/internal/config"
	"dicebet-backend/internal/models"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)

type RedisService struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{
		client: client,
		ctx:    ctx,
	}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) CreateUser(user *models.User) error {
	usernameKey := fmt.Sprintf(KeyUsernameIndex, strings.ToLower(user.Username))
	emailKey := fmt.Sprintf(KeyEmailIndex, strings.ToLower(user.Email))

	ok, err := s.client.SetNX(s.ctx, usernameKey, user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve username: %v", err)
	}
	if !ok {
		return ErrUsernameTaken
	}

	ok, err = s.client.SetNX(s.ctx, emailKey, user.ID, 0).Result()
	if err != nil {
		s.client.Del(s.ctx, usernameKey)
		return fmt.Errorf("failed to reserve email: %v", err)
	}
	if !ok {
		s.client.Del(s.ctx, usernameKey)
		return ErrEmailTaken
	}

	if err := s.SaveUser(user); err != nil {
		s.client.Del(s.ctx, usernameKey, emailKey)
		return err
	}

	return nil
}

func (s *RedisService) SaveUser(user *models.User) error {
	key := fmt.Sprintf(KeyUserInfo, user.ID)

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

func (s *RedisService) GetUser(userID string) (*models.User, error) {
	key := fmt.Sprintf(KeyUserInfo, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %v", err)
	}

	return &user, nil
}

func (s *RedisService) GetUserByEmail(email string) (*models.User, error) {
	key := fmt.Sprintf(KeyEmailIndex, strings.ToLower(email))

	userID, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve email: %v", err)
	}

	return s.GetUser(userID)
}

// settleWagerScript re-checks the nominal balance, debits the stake and
// credits the payout as one script, so two concurrent wagers can never both
// pass the balance check. Only the nominal balance is checked; the 24-hour
// lock is display-only and does not gate spending.
var settleWagerScript = redis.NewScript(`
	local key = KEYS[1]
	local stake = tonumber(ARGV[1])
	local payout = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("user not found")
	end

	local user = cjson.decode(data)

	if user.walletBalance < stake then
		return redis.error_reply("insufficient balance")
	end

	user.walletBalance = user.walletBalance - stake + payout

	redis.call("SET", key, cjson.encode(user))

	return tostring(user.walletBalance)
`)

func (s *RedisService) SettleWager(userID string, stake, payout float64) (float64, error) {
	key := fmt.Sprintf(KeyUserInfo, userID)

	res, err := settleWagerScript.Run(s.ctx, s.client, []string{key}, stake, payout).Text()
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "insufficient balance"):
			return 0, ErrInsufficientFunds
		case strings.Contains(err.Error(), "user not found"):
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to settle wager: %v", err)
	}

	newBalance, err := strconv.ParseFloat(res, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected settle result %q: %v", res, err)
	}

	return newBalance, nil
}

// AppendSettlement writes the bet entry, the win entry (nil when lost) and
// the game record in one MULTI/EXEC so the ledger never shows a partial
// settlement. winTx may be nil.
func (s *RedisService) AppendSettlement(betTx, winTx *models.Transaction, record *models.GameRecord) error {
	pipe := s.client.TxPipeline()

	if err := s.queueTransaction(pipe, betTx); err != nil {
		return err
	}
	if winTx != nil {
		if err := s.queueTransaction(pipe, winTx); err != nil {
			return err
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal game record: %v", err)
	}

	pipe.Set(s.ctx, fmt.Sprintf(KeyGameRecord, record.ID), data, 0)
	pipe.ZAdd(s.ctx, fmt.Sprintf(KeyUserGames, record.UserID), redis.Z{
		Score:  float64(record.CreatedAt.UnixMilli()),
		Member: record.ID,
	})

	if _, err := pipe.Exec(s.ctx); err != nil {
		return fmt.Errorf("failed to append settlement: %v", err)
	}

	return nil
}

func (s *RedisService) SaveTransaction(tx *models.Transaction) error {
	pipe := s.client.TxPipeline()
	if err := s.queueTransaction(pipe, tx); err != nil {
		return err
	}
	if _, err := pipe.Exec(s.ctx); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}
	return nil
}

func (s *RedisService) queueTransaction(pipe redis.Pipeliner, tx *models.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	pipe.Set(s.ctx, fmt.Sprintf(KeyTransaction, tx.ID), data, 0)
	pipe.ZAdd(s.ctx, fmt.Sprintf(KeyUserTransactions, tx.UserID), redis.Z{
		Score:  float64(tx.CreatedAt.UnixMilli()),
		Member: tx.ID,
	})

	return nil
}

func (s *RedisService) GetUserTransactions(userID string, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = DefaultHistoryLimit
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, userID)

	txIDs, err := s.client.ZRevRange(s.ctx, userTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	return s.loadTransactions(txIDs)
}

// GetWinTransactionsSince returns win entries created at or after `since`,
// oldest first. Unlock-date filtering is up to the caller.
func (s *RedisService) GetWinTransactionsSince(userID string, since time.Time) ([]*models.Transaction, error) {
	userTxKey := fmt.Sprintf(KeyUserTransactions, userID)

	txIDs, err := s.client.ZRangeByScore(s.ctx, userTxKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query win transactions: %v", err)
	}

	all, err := s.loadTransactions(txIDs)
	if err != nil {
		return nil, err
	}

	var wins []*models.Transaction
	for _, tx := range all {
		if tx.Type == models.TransactionTypeWin {
			wins = append(wins, tx)
		}
	}

	return wins, nil
}

func (s *RedisService) loadTransactions(txIDs []string) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	for _, txID := range txIDs {
		data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyTransaction, txID)).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

func (s *RedisService) GetGameHistory(userID string, limit int64) ([]*models.GameRecord, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = DefaultHistoryLimit
	}

	key := fmt.Sprintf(KeyUserGames, userID)

	ids, err := s.client.ZRevRange(s.ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game IDs: %v", err)
	}

	return s.loadGameRecords(ids)
}

// GetAllGameRecords scans the user's full game history for the statistics
// aggregator.
func (s *RedisService) GetAllGameRecords(userID string) ([]*models.GameRecord, error) {
	key := fmt.Sprintf(KeyUserGames, userID)

	ids, err := s.client.ZRange(s.ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game IDs: %v", err)
	}

	return s.loadGameRecords(ids)
}

func (s *RedisService) loadGameRecords(ids []string) ([]*models.GameRecord, error) {
	var records []*models.GameRecord
	for _, id := range ids {
		data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyGameRecord, id)).Result()
		if err != nil {
			continue
		}

		var record models.GameRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			continue
		}

		records = append(records, &record)
	}

	return records, nil
}

func (s *RedisService) CheckRateLimit(userID string, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) DeleteUser(user *models.User) error {
	return s.client.Del(s.ctx,
		fmt.Sprintf(KeyUserInfo, user.ID),
		fmt.Sprintf(KeyUsernameIndex, strings.ToLower(user.Username)),
		fmt.Sprintf(KeyEmailIndex, strings.ToLower(user.Email)),
	).Err()
}

func (s *RedisService) DeleteUserLedger(userID string) error {
	txIDs, _ := s.client.ZRange(s.ctx, fmt.Sprintf(KeyUserTransactions, userID), 0, -1).Result()
	for _, id := range txIDs {
		s.client.Del(s.ctx, fmt.Sprintf(KeyTransaction, id))
	}

	gameIDs, _ := s.client.ZRange(s.ctx, fmt.Sprintf(KeyUserGames, userID), 0, -1).Result()
	for _, id := range gameIDs {
		s.client.Del(s.ctx, fmt.Sprintf(KeyGameRecord, id))
	}

	return s.client.Del(s.ctx,
		fmt.Sprintf(KeyUserTransactions, userID),
		fmt.Sprintf(KeyUserGames, userID),
	).Err()
}

func (s *RedisService) ClearPlayRateLimit(userID string) error {
	key := fmt.Sprintf(KeyRateLimit, userID, "play")
	return s.client.Del(s.ctx, key).Err()
}

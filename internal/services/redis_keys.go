package services

import "time"

const (
	KeyUserInfo         = "user:%s:info"
	KeyUsernameIndex    = "index:username:%s"
	KeyEmailIndex       = "index:email:%s"
	KeyTransaction      = "transaction:%s"
	KeyUserTransactions = "user:%s:transactions"
	KeyGameRecord       = "game:record:%s"
	KeyUserGames        = "user:%s:games"
	KeyRateLimit        = "ratelimit:%s:%s"

	// The ledger is append-only and never trimmed: statistics do a full
	// scan and the lock window needs every win of the last 24 hours.

	DefaultRateLimitPlays = 30 // Max 30 plays per minute

	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

const RateLimitWindow = time.Minute

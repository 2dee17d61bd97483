package models

import "time"

type User struct {
	ID       string `json:"id" redis:"id"`
	Username string `json:"username" redis:"username"`
	Email    string `json:"email" redis:"email"`

	// Never exposed by handlers; persisted in the stored blob only.
	PasswordHash string `json:"passwordHash" redis:"password_hash"`

	WalletBalance float64 `json:"walletBalance" redis:"wallet_balance"`
	LockedBalance float64 `json:"lockedBalance" redis:"locked_balance"`

	CreatedAt time.Time `json:"createdAt" redis:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" redis:"updated_at"`
}

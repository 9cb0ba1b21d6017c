// Package domain holds the wallet account model shared by every wallet backend.
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAccountNotFound means the player has no active currency account
	ErrAccountNotFound = errors.New("wallet account not found")
	// ErrInsufficientBalance means a debit would take the balance below zero
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidAmount is returned for non-positive debits and credits
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrBalanceOverflow means a credit would push the balance past math.MaxInt64
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Account is a player's in-match money
type Account struct {
	PlayerID  int64     `gorm:"primaryKey;autoIncrement:false" json:"player_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Account) TableName() string {
	return "wallet_accounts"
}

// AccountAdmin opens accounts and sets balances directly. The match host uses it
// to hand out starting money; players never reach it.
type AccountAdmin interface {
	SetBalance(ctx context.Context, playerID int64, balance int64) error
}

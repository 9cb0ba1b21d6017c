package service

import "context"

// WalletService defines the currency ledger used to stake and pay out wagers.
// Implementations return wallet.ErrAccountNotFound for players without an account.
type WalletService interface {
	GetBalance(ctx context.Context, playerID int64) (int64, error)
	DeductBalance(ctx context.Context, playerID int64, amount int64, reason string) (int64, error)
	AddBalance(ctx context.Context, playerID int64, amount int64, reason string) (int64, error)
	PlaceBet(ctx context.Context, playerID int64, amount int64, roundID string) (int64, error)
}

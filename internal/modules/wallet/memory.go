// Package wallet provides the in-memory currency ledger.
package wallet

import (
	"context"
	"math"
	"sync"

	"github.com/frankieli/players_bet/internal/modules/wallet/domain"
)

// MemoryService implements service.WalletService with an in-process map
type MemoryService struct {
	balances map[int64]int64
	mu       sync.RWMutex
}

// NewMemoryService creates a new in-memory wallet
func NewMemoryService() *MemoryService {
	return &MemoryService{
		balances: make(map[int64]int64),
	}
}

// SetBalance opens the account if needed and sets its balance
func (s *MemoryService) SetBalance(ctx context.Context, playerID int64, balance int64) error {
	if balance < 0 {
		return domain.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[playerID] = balance
	return nil
}

// CloseAccount removes the player's account
func (s *MemoryService) CloseAccount(playerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.balances, playerID)
}

// GetBalance returns the player's balance
func (s *MemoryService) GetBalance(ctx context.Context, playerID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance, exists := s.balances[playerID]
	if !exists {
		return 0, domain.ErrAccountNotFound
	}
	return balance, nil
}

// DeductBalance debits the account; the balance never goes negative
func (s *MemoryService) DeductBalance(ctx context.Context, playerID int64, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, exists := s.balances[playerID]
	if !exists {
		return 0, domain.ErrAccountNotFound
	}
	if balance < amount {
		return balance, domain.ErrInsufficientBalance
	}

	newBalance := balance - amount
	s.balances[playerID] = newBalance
	return newBalance, nil
}

// AddBalance credits the account
func (s *MemoryService) AddBalance(ctx context.Context, playerID int64, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, exists := s.balances[playerID]
	if !exists {
		return 0, domain.ErrAccountNotFound
	}
	if balance > math.MaxInt64-amount {
		return 0, domain.ErrBalanceOverflow
	}

	newBalance := balance + amount
	s.balances[playerID] = newBalance
	return newBalance, nil
}

// PlaceBet stakes a wager for the given round
func (s *MemoryService) PlaceBet(ctx context.Context, playerID int64, amount int64, roundID string) (int64, error) {
	return s.DeductBalance(ctx, playerID, amount, "bet:"+roundID)
}

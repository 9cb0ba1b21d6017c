// Package db provides the gorm-backed currency ledger.
package db

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/frankieli/players_bet/internal/modules/wallet/domain"
	"github.com/frankieli/players_bet/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository implements service.WalletService on top of gorm.
// Balance changes are single conditional UPDATEs so concurrent debits cannot overdraw.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// AutoMigrate creates the accounts table
func (r *AccountRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Account{})
}

// SetBalance opens the account if needed and sets its balance
func (r *AccountRepository) SetBalance(ctx context.Context, playerID int64, balance int64) error {
	if balance < 0 {
		return domain.ErrInvalidAmount
	}
	account := &domain.Account{PlayerID: playerID, Balance: balance}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(account).Error
}

func (r *AccountRepository) GetBalance(ctx context.Context, playerID int64) (int64, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).Where("player_id = ?", playerID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, err
	}
	return account.Balance, nil
}

func (r *AccountRepository) DeductBalance(ctx context.Context, playerID int64, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	var newBalance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Account{}).
			Where("player_id = ? AND balance >= ?", playerID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Tell a missing account apart from a short one
			var count int64
			if err := tx.Model(&domain.Account{}).Where("player_id = ?", playerID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrAccountNotFound
			}
			return domain.ErrInsufficientBalance
		}
		return tx.Model(&domain.Account{}).Where("player_id = ?", playerID).Select("balance").Row().Scan(&newBalance)
	})
	if err != nil {
		return 0, err
	}

	logger.Debug(ctx).
		Int64("player_id", playerID).
		Int64("amount", amount).
		Int64("balance", newBalance).
		Str("reason", reason).
		Msg("wallet debited")
	return newBalance, nil
}

func (r *AccountRepository) AddBalance(ctx context.Context, playerID int64, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	var newBalance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Account{}).
			Where("player_id = ? AND balance <= ?", playerID, int64(math.MaxInt64)-amount).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&domain.Account{}).Where("player_id = ?", playerID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrAccountNotFound
			}
			return domain.ErrBalanceOverflow
		}
		return tx.Model(&domain.Account{}).Where("player_id = ?", playerID).Select("balance").Row().Scan(&newBalance)
	})
	if err != nil {
		return 0, err
	}

	logger.Debug(ctx).
		Int64("player_id", playerID).
		Int64("amount", amount).
		Int64("balance", newBalance).
		Str("reason", reason).
		Msg("wallet credited")
	return newBalance, nil
}

func (r *AccountRepository) PlaceBet(ctx context.Context, playerID int64, amount int64, roundID string) (int64, error) {
	balance, err := r.DeductBalance(ctx, playerID, amount, "bet:"+roundID)
	if err != nil {
		return 0, fmt.Errorf("stake for round %s: %w", roundID, err)
	}
	return balance, nil
}

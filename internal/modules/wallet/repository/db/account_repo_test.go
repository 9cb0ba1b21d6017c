package db

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/frankieli/players_bet/internal/modules/wallet/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *AccountRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	repo := NewAccountRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func TestAccountRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.GetBalance(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	require.NoError(t, repo.SetBalance(ctx, 7, 1000))
	balance, err := repo.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	balance, err = repo.PlaceBet(ctx, 7, 100, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), balance)

	balance, err = repo.AddBalance(ctx, 7, 400, "win:r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1300), balance)

	// upsert overwrites
	require.NoError(t, repo.SetBalance(ctx, 7, 50))
	balance, err = repo.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}

func TestAccountRepository_DebitErrors(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.SetBalance(ctx, 1, 10))

	_, err := repo.DeductBalance(ctx, 1, 11, "bet")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = repo.DeductBalance(ctx, 2, 1, "bet")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = repo.DeductBalance(ctx, 1, 0, "bet")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = repo.AddBalance(ctx, 2, 5, "win")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	balance, err := repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
}

func TestAccountRepository_CreditOverflow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.SetBalance(ctx, 1, math.MaxInt64-10))

	_, err := repo.AddBalance(ctx, 1, 11, "win")
	assert.ErrorIs(t, err, domain.ErrBalanceOverflow)

	balance, err := repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-10), balance)

	balance, err = repo.AddBalance(ctx, 1, 10, "win")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), balance)
}

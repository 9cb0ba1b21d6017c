package wallet

import (
	"context"
	"math"
	"testing"

	"github.com/frankieli/players_bet/internal/modules/wallet/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryService(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	_, err := svc.GetBalance(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	require.NoError(t, svc.SetBalance(ctx, 1, 1000))

	balance, err := svc.PlaceBet(ctx, 1, 100, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), balance)

	_, err = svc.DeductBalance(ctx, 1, 901, "bet")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	balance, err = svc.AddBalance(ctx, 1, 400, "win")
	require.NoError(t, err)
	assert.Equal(t, int64(1300), balance)

	svc.CloseAccount(1)
	_, err = svc.AddBalance(ctx, 1, 400, "win")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestMemoryService_CreditOverflow(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()
	require.NoError(t, svc.SetBalance(ctx, 1, math.MaxInt64-10))

	_, err := svc.AddBalance(ctx, 1, 11, "win")
	assert.ErrorIs(t, err, domain.ErrBalanceOverflow)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-10), balance)

	balance, err = svc.AddBalance(ctx, 1, 10, "win")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), balance)
}

package service

import (
	"context"

	"github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/internal/modules/wager/odds"
)

// WagerService is the player-facing side of the round controller
type WagerService interface {
	PlaceBet(ctx context.Context, token, sideArg, amountArg string) (*domain.Wager, error)
	State() domain.RoundState
	PlayerWager(playerID int64) (domain.Wager, bool)
	Quote(ctx context.Context) (odds.Quote, error)
}

// RoundLifecycle receives round boundaries from whatever drives the match
type RoundLifecycle interface {
	OnRoundStart(ctx context.Context) string
	OnRoundEnd(ctx context.Context, winner domain.Side) (*domain.Settlement, error)
}

package service

import (
	"context"

	"github.com/frankieli/players_bet/internal/modules/wager/domain"
)

// OutcomeNotifier delivers wager events to the presentation layer
type OutcomeNotifier interface {
	// NotifyPlaced confirms an accepted wager to its owner
	NotifyPlaced(ctx context.Context, wager *domain.Wager)
	// NotifyOutcome reports a settled wager to its owner
	NotifyOutcome(ctx context.Context, outcome domain.Outcome)
}

// GatewayService pushes raw messages to connected players
type GatewayService interface {
	Broadcast(message []byte)
	SendToUser(playerID int64, message []byte)
}

package notify

import (
	"context"

	"github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/pkg/logger"
)

// Sink is one delivery channel for events
type Sink interface {
	Name() string
	Publish(ctx context.Context, event Event) error
}

// Notifier fans events out to every sink.
// It implements service.OutcomeNotifier; a failing sink never blocks the others.
type Notifier struct {
	matchID string
	sinks   []Sink
}

// NewNotifier creates a notifier for one match
func NewNotifier(matchID string, sinks ...Sink) *Notifier {
	return &Notifier{
		matchID: matchID,
		sinks:   sinks,
	}
}

// NotifyPlaced confirms an accepted wager
func (n *Notifier) NotifyPlaced(ctx context.Context, w *domain.Wager) {
	n.publish(ctx, PlacedEvent(n.matchID, w))
}

// NotifyOutcome reports a settled wager
func (n *Notifier) NotifyOutcome(ctx context.Context, o domain.Outcome) {
	n.publish(ctx, OutcomeEvent(n.matchID, o))
}

func (n *Notifier) publish(ctx context.Context, event Event) {
	for _, sink := range n.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			logger.Error(ctx).
				Err(err).
				Str("sink", sink.Name()).
				Str("event", event.Type).
				Int64("player_id", event.PlayerID).
				Str("wager_id", event.WagerID).
				Msg("Failed to publish wager event")
		}
	}
}

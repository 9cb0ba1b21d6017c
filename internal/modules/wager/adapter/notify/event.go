// Package notify delivers wager confirmations and outcomes to players and
// to downstream consumers.
package notify

import (
	"time"

	"github.com/frankieli/players_bet/internal/modules/wager/domain"
)

// Event types
const (
	EventBetPlaced  = "bet_placed"
	EventBetOutcome = "bet_outcome"
)

// Results carried by an Event
const (
	ResultPlaced = "placed"
	ResultWin    = "win"
	ResultLoss   = "loss"
)

// Event is the wire form shared by every sink
type Event struct {
	Type      string      `json:"type"`
	MatchID   string      `json:"match_id"`
	RoundID   string      `json:"round_id"`
	WagerID   string      `json:"wager_id"`
	PlayerID  int64       `json:"player_id"`
	Side      domain.Side `json:"side"`
	Stake     int64       `json:"stake"`
	Profit    int64       `json:"profit"`
	Credited  int64       `json:"credited"`
	Result    string      `json:"result"`
	Message   string      `json:"message"`
	Timestamp int64       `json:"timestamp"`
}

// PlacedEvent describes an accepted wager
func PlacedEvent(matchID string, w *domain.Wager) Event {
	return Event{
		Type:      EventBetPlaced,
		MatchID:   matchID,
		RoundID:   w.RoundID,
		WagerID:   w.WagerID,
		PlayerID:  w.PlayerID,
		Side:      w.Side,
		Stake:     w.Stake,
		Profit:    w.PotentialProfit,
		Result:    ResultPlaced,
		Message:   domain.PlacedMessage(w),
		Timestamp: time.Now().UnixMilli(),
	}
}

// OutcomeEvent describes a settled wager
func OutcomeEvent(matchID string, o domain.Outcome) Event {
	result := ResultLoss
	if o.Won {
		result = ResultWin
	}
	return Event{
		Type:      EventBetOutcome,
		MatchID:   matchID,
		RoundID:   o.RoundID,
		WagerID:   o.WagerID,
		PlayerID:  o.PlayerID,
		Side:      o.Side,
		Stake:     o.Stake,
		Profit:    o.Profit,
		Credited:  o.Credited(),
		Result:    result,
		Message:   domain.OutcomeMessage(o),
		Timestamp: time.Now().UnixMilli(),
	}
}

package service

import (
	"context"

	"github.com/frankieli/players_bet/internal/modules/wager/domain"
)

// RosterService answers who is connected, on which side, and alive.
// Every call returns a fresh snapshot.
type RosterService interface {
	Snapshot(ctx context.Context) (domain.Roster, error)
}

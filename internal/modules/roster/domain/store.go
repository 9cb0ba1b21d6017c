// Package domain defines the roster store that backs live status snapshots.
package domain

import (
	"context"
	"errors"

	wagerDomain "github.com/frankieli/players_bet/internal/modules/wager/domain"
)

// ErrInvalidEntry is returned for entries without a positive player ID
var ErrInvalidEntry = errors.New("roster entry needs a positive player id")

// Store keeps the latest status of every player in the match.
// The game host writes to it; the wager controller only reads snapshots.
type Store interface {
	Snapshot(ctx context.Context) (wagerDomain.Roster, error)
	Upsert(ctx context.Context, entry wagerDomain.RosterEntry) error
	Remove(ctx context.Context, playerID int64) error
	Replace(ctx context.Context, roster wagerDomain.Roster) error
}

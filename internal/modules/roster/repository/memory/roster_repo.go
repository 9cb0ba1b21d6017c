// Package memory provides the in-process roster store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/frankieli/players_bet/internal/modules/roster/domain"
	wagerDomain "github.com/frankieli/players_bet/internal/modules/wager/domain"
)

// RosterRepository implements domain.Store using memory
type RosterRepository struct {
	entries map[int64]wagerDomain.RosterEntry
	mu      sync.RWMutex
}

// NewRosterRepository creates a new memory roster repository
func NewRosterRepository() *RosterRepository {
	return &RosterRepository{
		entries: make(map[int64]wagerDomain.RosterEntry),
	}
}

// Snapshot copies every entry, ordered by player ID
func (r *RosterRepository) Snapshot(ctx context.Context) (wagerDomain.Roster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roster := make(wagerDomain.Roster, 0, len(r.entries))
	for _, e := range r.entries {
		roster = append(roster, e)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].PlayerID < roster[j].PlayerID })
	return roster, nil
}

func (r *RosterRepository) Upsert(ctx context.Context, entry wagerDomain.RosterEntry) error {
	if entry.PlayerID <= 0 {
		return domain.ErrInvalidEntry
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.PlayerID] = entry
	return nil
}

func (r *RosterRepository) Remove(ctx context.Context, playerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, playerID)
	return nil
}

// Replace swaps the whole roster in one step
func (r *RosterRepository) Replace(ctx context.Context, roster wagerDomain.Roster) error {
	entries := make(map[int64]wagerDomain.RosterEntry, len(roster))
	for _, e := range roster {
		if e.PlayerID <= 0 {
			return domain.ErrInvalidEntry
		}
		entries[e.PlayerID] = e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries
	return nil
}

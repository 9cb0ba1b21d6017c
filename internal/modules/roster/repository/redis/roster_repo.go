// Package redis provides the redis-backed roster store, shared by every
// service instance attached to the same match.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/frankieli/players_bet/internal/modules/roster/domain"
	wagerDomain "github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RosterRepository implements domain.Store using a redis hash per match
type RosterRepository struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRosterRepository creates a new redis roster repository
func NewRosterRepository(rdb *redis.Client, matchID string) *RosterRepository {
	return &RosterRepository{
		rdb: rdb,
		key: fmt.Sprintf("roster:%s", matchID),
		ttl: 12 * time.Hour,
	}
}

// Snapshot reads every entry, ordered by player ID
func (r *RosterRepository) Snapshot(ctx context.Context) (wagerDomain.Roster, error) {
	dataMap, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	roster := make(wagerDomain.Roster, 0, len(dataMap))
	for field, data := range dataMap {
		var entry wagerDomain.RosterEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			logger.Warn(ctx).Err(err).Str("field", field).Msg("skipping corrupt roster entry")
			continue
		}
		roster = append(roster, entry)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].PlayerID < roster[j].PlayerID })
	return roster, nil
}

func (r *RosterRepository) Upsert(ctx context.Context, entry wagerDomain.RosterEntry) error {
	if entry.PlayerID <= 0 {
		return domain.ErrInvalidEntry
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.key, strconv.FormatInt(entry.PlayerID, 10), data)
	pipe.Expire(ctx, r.key, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RosterRepository) Remove(ctx context.Context, playerID int64) error {
	return r.rdb.HDel(ctx, r.key, strconv.FormatInt(playerID, 10)).Err()
}

// Replace swaps the whole roster inside MULTI/EXEC so readers never see a half-written hash
func (r *RosterRepository) Replace(ctx context.Context, roster wagerDomain.Roster) error {
	values := make([]interface{}, 0, len(roster)*2)
	for _, e := range roster {
		if e.PlayerID <= 0 {
			return domain.ErrInvalidEntry
		}
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		values = append(values, strconv.FormatInt(e.PlayerID, 10), data)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, r.key)
	if len(values) > 0 {
		pipe.HSet(ctx, r.key, values...)
		pipe.Expire(ctx, r.key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Package machine drives rounds on a timer when no game host is attached.
package machine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	rosterDomain "github.com/frankieli/players_bet/internal/modules/roster/domain"
	"github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/pkg/logger"
)

// EventType identifies a round boundary
type EventType string

const (
	EventRoundStarted   EventType = "round_started"
	EventRoundEnded     EventType = "round_ended"
	EventMachineStopped EventType = "machine_stopped"
)

// RoundEvent is delivered to every handler, one at a time
type RoundEvent struct {
	Type        EventType
	RoundNumber int
	Winner      domain.Side
	At          time.Time
}

// EventHandler handles round events
type EventHandler func(ctx context.Context, event RoundEvent)

// StateMachine runs start, live and rest phases in a loop.
//
// With Simulate set it also plays the match itself: every team member is
// revived at round start and one random survivor dies every KillInterval,
// ending the round early once a team is wiped.
type StateMachine struct {
	mu            sync.RWMutex
	store         rosterDomain.Store
	eventHandlers []EventHandler
	rnd           *rand.Rand
	roundCounter  int
	stopping      bool

	LiveDuration time.Duration
	RestDuration time.Duration
	KillInterval time.Duration
	Simulate     bool
}

// NewStateMachine creates a new state machine reading and, when simulating,
// writing the given roster store
func NewStateMachine(store rosterDomain.Store) *StateMachine {
	return &StateMachine{
		store:         store,
		eventHandlers: make([]EventHandler, 0),
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
		LiveDuration:  40 * time.Second,
		RestDuration:  5 * time.Second,
		KillInterval:  4 * time.Second,
	}
}

// RegisterEventHandler registers an event handler
func (sm *StateMachine) RegisterEventHandler(handler EventHandler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.eventHandlers = append(sm.eventHandlers, handler)
}

// emitEvent calls handlers in registration order on the machine goroutine,
// so a round end is never processed concurrently with the next start
func (sm *StateMachine) emitEvent(ctx context.Context, event RoundEvent) {
	sm.mu.RLock()
	handlers := make([]EventHandler, len(sm.eventHandlers))
	copy(handlers, sm.eventHandlers)
	sm.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
}

// Stop signals the state machine to stop after the current round
func (sm *StateMachine) Stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.stopping = true
}

func (sm *StateMachine) isStopping() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stopping
}

// Start runs rounds until Stop is called or ctx is cancelled
func (sm *StateMachine) Start(ctx context.Context) {
	logger.Info(ctx).
		Dur("live", sm.LiveDuration).
		Dur("rest", sm.RestDuration).
		Bool("simulate", sm.Simulate).
		Msg("Round machine started")

	for !sm.isStopping() && ctx.Err() == nil {
		sm.runRound(ctx)
	}

	logger.Info(ctx).Msg("Round machine stopping")
	sm.emitEvent(ctx, RoundEvent{Type: EventMachineStopped, At: time.Now()})
}

// runRound executes a single round
func (sm *StateMachine) runRound(ctx context.Context) {
	sm.mu.Lock()
	sm.roundCounter++
	number := sm.roundCounter
	sm.mu.Unlock()

	if sm.Simulate {
		sm.reviveAll(ctx)
	}

	logger.Info(ctx).Int("round_number", number).Msg("Round started")
	sm.emitEvent(ctx, RoundEvent{Type: EventRoundStarted, RoundNumber: number, At: time.Now()})

	if sm.Simulate {
		sm.playLive(ctx)
	} else {
		sleep(ctx, sm.LiveDuration)
	}

	// Settle even when shutting down so no stake is left hanging
	endCtx := context.WithoutCancel(ctx)
	winner := sm.decideWinner(endCtx)
	logger.Info(ctx).
		Int("round_number", number).
		Str("winner", winner.String()).
		Msg("Round ended")
	sm.emitEvent(endCtx, RoundEvent{Type: EventRoundEnded, RoundNumber: number, Winner: winner, At: time.Now()})

	sleep(ctx, sm.RestDuration)
}

// playLive kills one survivor per tick until time runs out or a team is wiped
func (sm *StateMachine) playLive(ctx context.Context) {
	interval := sm.KillInterval
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.NewTimer(sm.LiveDuration)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-ticker.C:
			if wiped := sm.killOne(ctx); wiped {
				return
			}
		}
	}
}

func (sm *StateMachine) reviveAll(ctx context.Context) {
	roster, err := sm.store.Snapshot(ctx)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Revive failed, roster unavailable")
		return
	}
	for _, e := range roster {
		if !e.Side.IsTeam() || e.Alive {
			continue
		}
		e.Alive = true
		if err := sm.store.Upsert(ctx, e); err != nil {
			logger.Error(ctx).Err(err).Int64("player_id", e.PlayerID).Msg("Revive failed")
		}
	}
}

// killOne reports whether a team has nobody left afterwards
func (sm *StateMachine) killOne(ctx context.Context) bool {
	roster, err := sm.store.Snapshot(ctx)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Kill skipped, roster unavailable")
		return false
	}

	alive := make([]domain.RosterEntry, 0, len(roster))
	for _, e := range roster {
		if e.IsCombatant() {
			alive = append(alive, e)
		}
	}
	if len(alive) == 0 {
		return true
	}

	victim := alive[sm.rnd.Intn(len(alive))]
	victim.Alive = false
	if err := sm.store.Upsert(ctx, victim); err != nil {
		logger.Error(ctx).Err(err).Int64("player_id", victim.PlayerID).Msg("Kill failed")
		return false
	}
	logger.Debug(ctx).
		Int64("player_id", victim.PlayerID).
		Str("side", victim.Side.String()).
		Msg("Player eliminated")

	roster, err = sm.store.Snapshot(ctx)
	if err != nil {
		return false
	}
	first, second := roster.AliveCounts()
	return first == 0 || second == 0
}

// decideWinner picks the team with more survivors; a tie is a draw
func (sm *StateMachine) decideWinner(ctx context.Context) domain.Side {
	roster, err := sm.store.Snapshot(ctx)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Roster unavailable, round ends without winner")
		return domain.SideNone
	}
	return Winner(roster.AliveCounts())
}

// Winner maps final alive counts to the winning side
func Winner(firstAlive, secondAlive int) domain.Side {
	switch {
	case firstAlive > secondAlive:
		return domain.SideFirstTeam
	case secondAlive > firstAlive:
		return domain.SideSecondTeam
	default:
		return domain.SideNone
	}
}

// RoundCount returns how many rounds have started
func (sm *StateMachine) RoundCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.roundCounter
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

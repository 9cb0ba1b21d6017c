package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rosterMemory "github.com/frankieli/players_bet/internal/modules/roster/repository/memory"
	"github.com/frankieli/players_bet/internal/modules/wallet"
	"github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/pkg/logger"
)

func init() {
	logger.Init(logger.Config{Level: "error", Format: "console"})
}

// tokenResolver treats the token as a lookup key
type tokenResolver map[string]int64

func (r tokenResolver) ResolvePlayer(ctx context.Context, token string) (int64, error) {
	id, ok := r[token]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return id, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	placed   []domain.Wager
	outcomes []domain.Outcome
}

func (n *recordingNotifier) NotifyPlaced(ctx context.Context, w *domain.Wager) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, *w)
}

func (n *recordingNotifier) NotifyOutcome(ctx context.Context, o domain.Outcome) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, o)
}

type failingCreditWallet struct {
	*wallet.MemoryService
}

func (w failingCreditWallet) AddBalance(ctx context.Context, playerID, amount int64, reason string) (int64, error) {
	return 0, errors.New("ledger offline")
}

type brokenRoster struct{}

func (brokenRoster) Snapshot(ctx context.Context) (domain.Roster, error) {
	return nil, errors.New("roster offline")
}

type testEnv struct {
	ctx        context.Context
	roster     *rosterMemory.RosterRepository
	wallet     *wallet.MemoryService
	notifier   *recordingNotifier
	controller *RoundController
}

// Players 1..6. Team one: 1 (dead), 2, 3, 4 alive. Team two: 5 alive, 6 dead.
// Player 7 spectates. Everyone starts with 1000.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	roster := rosterMemory.NewRosterRepository()
	require.NoError(t, roster.Replace(ctx, domain.Roster{
		{PlayerID: 1, Side: domain.SideFirstTeam, Connected: true, Alive: false},
		{PlayerID: 2, Side: domain.SideFirstTeam, Connected: true, Alive: true},
		{PlayerID: 3, Side: domain.SideFirstTeam, Connected: true, Alive: true},
		{PlayerID: 4, Side: domain.SideFirstTeam, Connected: true, Alive: true},
		{PlayerID: 5, Side: domain.SideSecondTeam, Connected: true, Alive: true},
		{PlayerID: 6, Side: domain.SideSecondTeam, Connected: true, Alive: false},
		{PlayerID: 7, Side: domain.SideSpectator, Connected: true, Alive: false},
	}))

	walletSvc := wallet.NewMemoryService()
	resolver := tokenResolver{}
	for id := int64(1); id <= 7; id++ {
		require.NoError(t, walletSvc.SetBalance(ctx, id, 1000))
		resolver[tokenFor(id)] = id
	}
	resolver["ghost"] = 99

	notifier := &recordingNotifier{}
	return &testEnv{
		ctx:        ctx,
		roster:     roster,
		wallet:     walletSvc,
		notifier:   notifier,
		controller: NewRoundController(roster, walletSvc, resolver, notifier, domain.DefaultSideTokens(), nil),
	}
}

func tokenFor(id int64) string {
	return "token-" + string(rune('0'+id))
}

func (e *testEnv) balance(t *testing.T, id int64) int64 {
	t.Helper()
	b, err := e.wallet.GetBalance(e.ctx, id)
	require.NoError(t, err)
	return b
}

func TestPlaceBet_WinFlow(t *testing.T) {
	env := newTestEnv(t)
	env.controller.OnRoundStart(env.ctx)

	// 3 alive vs 1 alive, backing the lone survivor
	wager, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100")
	require.NoError(t, err)
	assert.Equal(t, domain.SideSecondTeam, wager.Side)
	assert.Equal(t, int64(100), wager.Stake)
	assert.Equal(t, int64(300), wager.PotentialProfit)
	assert.Equal(t, int64(900), env.balance(t, 1))

	require.Len(t, env.notifier.placed, 1)
	assert.Equal(t, wager.WagerID, env.notifier.placed[0].WagerID)

	settlement, err := env.controller.OnRoundEnd(env.ctx, domain.SideSecondTeam)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), env.balance(t, 1))
	assert.Equal(t, int64(400), settlement.TotalCredited)

	require.Len(t, env.notifier.outcomes, 1)
	outcome := env.notifier.outcomes[0]
	assert.True(t, outcome.Won)
	assert.Equal(t, int64(100), outcome.Stake)
	assert.Equal(t, int64(300), outcome.Profit)

	state := env.controller.State()
	assert.Equal(t, domain.PhaseBettingClosed, state.Phase)
	assert.Equal(t, 0, state.OpenWagers)
}

func TestPlaceBet_LossFlow(t *testing.T) {
	env := newTestEnv(t)
	env.controller.OnRoundStart(env.ctx)

	// Backing the bigger team pays a third
	wager, err := env.controller.PlaceBet(env.ctx, tokenFor(6), "T", "300")
	require.NoError(t, err)
	assert.Equal(t, int64(100), wager.PotentialProfit)

	settlement, err := env.controller.OnRoundEnd(env.ctx, domain.SideSecondTeam)
	require.NoError(t, err)
	assert.Equal(t, int64(700), env.balance(t, 6))
	assert.Equal(t, int64(0), settlement.TotalCredited)

	require.Len(t, env.notifier.outcomes, 1)
	assert.False(t, env.notifier.outcomes[0].Won)
	assert.Equal(t, int64(300), env.notifier.outcomes[0].Stake)
}

func TestPlaceBet_AmountTokens(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.wallet.SetBalance(env.ctx, 1, 999))
	require.NoError(t, env.wallet.SetBalance(env.ctx, 6, 1000))
	env.controller.OnRoundStart(env.ctx)

	w, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "t", "half")
	require.NoError(t, err)
	assert.Equal(t, int64(499), w.Stake)
	assert.Equal(t, int64(500), env.balance(t, 1))

	w, err = env.controller.PlaceBet(env.ctx, tokenFor(6), "ct", "all")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), w.Stake)
	assert.Equal(t, int64(0), env.balance(t, 6))
}

func TestPlaceBet_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, env *testEnv)
		start   bool
		token   string
		side    string
		amount  string
		wantErr error
	}{
		{"unknown token", nil, true, "nobody", "t", "100", domain.ErrInvalidPlayer},
		{"not in roster", nil, true, "ghost", "t", "100", domain.ErrInvalidPlayer},
		{
			"disconnected",
			func(t *testing.T, env *testEnv) {
				require.NoError(t, env.roster.Upsert(env.ctx, domain.RosterEntry{PlayerID: 1, Side: domain.SideFirstTeam}))
			},
			true, tokenFor(1), "t", "100", domain.ErrInvalidPlayer,
		},
		{
			"no account",
			func(t *testing.T, env *testEnv) { env.wallet.CloseAccount(1) },
			true, tokenFor(1), "t", "100", domain.ErrInvalidPlayer,
		},
		{"unknown side", nil, true, tokenFor(1), "terrorists", "100", domain.ErrInvalidArgs},
		{"non numeric amount", nil, true, tokenFor(1), "t", "lots", domain.ErrInvalidArgs},
		{"zero amount", nil, true, tokenFor(1), "t", "0", domain.ErrInvalidArgs},
		{
			"all of nothing",
			func(t *testing.T, env *testEnv) { require.NoError(t, env.wallet.SetBalance(env.ctx, 1, 0)) },
			true, tokenFor(1), "t", "all", domain.ErrInvalidArgs,
		},
		{"spectator", nil, true, tokenFor(7), "t", "100", domain.ErrSpectating},
		{"alive", nil, true, tokenFor(2), "ct", "100", domain.ErrStillAlive},
		{"before round start", nil, false, tokenFor(1), "t", "100", domain.ErrRoundNotActive},
		{"too expensive", nil, true, tokenFor(1), "t", "1001", domain.ErrInsufficientFunds},
		{
			"second team wiped",
			func(t *testing.T, env *testEnv) {
				require.NoError(t, env.roster.Upsert(env.ctx, domain.RosterEntry{PlayerID: 5, Side: domain.SideSecondTeam, Connected: true}))
			},
			true, tokenFor(1), "t", "100", domain.ErrNoOddsAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(t, env)
			}
			if tt.start {
				env.controller.OnRoundStart(env.ctx)
			}

			balanceBefore, _ := env.wallet.GetBalance(env.ctx, 1)
			wager, err := env.controller.PlaceBet(env.ctx, tt.token, tt.side, tt.amount)
			assert.Nil(t, wager)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			_, isReject := domain.AsReject(err)
			assert.True(t, isReject)

			balanceAfter, _ := env.wallet.GetBalance(env.ctx, 1)
			assert.Equal(t, balanceBefore, balanceAfter)
			assert.Equal(t, 0, env.controller.State().OpenWagers)
			assert.Empty(t, env.notifier.placed)
		})
	}
}

func TestPlaceBet_CheckOrder(t *testing.T) {
	env := newTestEnv(t)

	// Round closed and bad arguments: arguments are checked first
	_, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "x", "100")
	assert.ErrorIs(t, err, domain.ErrInvalidArgs)

	// Spectator who is also alive and broke
	require.NoError(t, env.roster.Upsert(env.ctx, domain.RosterEntry{PlayerID: 7, Side: domain.SideSpectator, Connected: true, Alive: true}))
	_, err = env.controller.PlaceBet(env.ctx, tokenFor(7), "t", "5000")
	assert.ErrorIs(t, err, domain.ErrSpectating)

	// Alive beats round not active
	_, err = env.controller.PlaceBet(env.ctx, tokenFor(2), "t", "100")
	assert.ErrorIs(t, err, domain.ErrStillAlive)

	// Round not active beats insufficient funds
	_, err = env.controller.PlaceBet(env.ctx, tokenFor(1), "t", "5000")
	assert.ErrorIs(t, err, domain.ErrRoundNotActive)

	// Usage text rides along with argument errors
	reject, ok := domain.AsReject(func() error {
		_, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "x", "100")
		return err
	}())
	require.True(t, ok)
	assert.Contains(t, reject.Message, domain.Usage)
}

func TestPlaceBet_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.controller.OnRoundStart(env.ctx)

	_, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100")
	require.NoError(t, err)

	for _, args := range [][2]string{{"ct", "100"}, {"t", "50"}, {"T", "all"}, {"ct", "half"}} {
		_, err := env.controller.PlaceBet(env.ctx, tokenFor(1), args[0], args[1])
		assert.ErrorIs(t, err, domain.ErrDuplicateBet, "args=%v", args)
	}
	assert.Equal(t, int64(900), env.balance(t, 1))
	assert.Equal(t, 1, env.controller.State().OpenWagers)

	w, ok := env.controller.PlayerWager(1)
	require.True(t, ok)
	assert.Equal(t, int64(100), w.Stake)
}

func TestPlaceBet_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	env.controller.OnRoundStart(env.ctx)

	var accepted int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100"); err == nil {
				atomic.AddInt32(&accepted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted)
	assert.Equal(t, int64(900), env.balance(t, 1))
}

func TestOnRoundEnd_NonTeamWinner(t *testing.T) {
	for _, winner := range []domain.Side{domain.SideSpectator, domain.SideNone} {
		t.Run(winner.String(), func(t *testing.T) {
			env := newTestEnv(t)
			env.controller.OnRoundStart(env.ctx)
			_, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100")
			require.NoError(t, err)

			settlement, err := env.controller.OnRoundEnd(env.ctx, winner)
			require.NoError(t, err)
			assert.Empty(t, settlement.Outcomes)
			assert.Equal(t, int64(900), env.balance(t, 1))
			assert.Empty(t, env.notifier.outcomes)

			state := env.controller.State()
			assert.Equal(t, domain.PhaseBettingClosed, state.Phase)
			assert.Equal(t, 0, state.OpenWagers)
		})
	}
}

func TestOnRoundEnd_DisconnectedBettorSkipped(t *testing.T) {
	env := newTestEnv(t)
	env.controller.OnRoundStart(env.ctx)

	_, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100")
	require.NoError(t, err)
	_, err = env.controller.PlaceBet(env.ctx, tokenFor(6), "ct", "100")
	require.NoError(t, err)

	require.NoError(t, env.roster.Remove(env.ctx, 1))

	settlement, err := env.controller.OnRoundEnd(env.ctx, domain.SideSecondTeam)
	require.NoError(t, err)
	assert.Equal(t, 1, settlement.Skipped)
	require.Len(t, settlement.Outcomes, 1)
	assert.Equal(t, int64(6), settlement.Outcomes[0].PlayerID)

	assert.Equal(t, int64(900), env.balance(t, 1))
	assert.Equal(t, int64(1300), env.balance(t, 6))
	require.Len(t, env.notifier.outcomes, 1)
	assert.Equal(t, int64(6), env.notifier.outcomes[0].PlayerID)
}

func TestOnRoundEnd_PlacementOrder(t *testing.T) {
	env := newTestEnv(t)
	// Player 2 dies too, leaving 2 alive vs 1
	require.NoError(t, env.roster.Upsert(env.ctx, domain.RosterEntry{PlayerID: 2, Side: domain.SideFirstTeam, Connected: true}))
	env.controller.OnRoundStart(env.ctx)

	bets := []struct {
		id     int64
		side   string
		amount string
	}{
		{6, "t", "10"},
		{1, "ct", "100"},
		{2, "t", "30"},
	}
	var wantCredited int64
	for _, b := range bets {
		w, err := env.controller.PlaceBet(env.ctx, tokenFor(b.id), b.side, b.amount)
		require.NoError(t, err)
		if w.Side == domain.SideFirstTeam {
			wantCredited += w.Stake + w.PotentialProfit
		}
	}

	settlement, err := env.controller.OnRoundEnd(env.ctx, domain.SideFirstTeam)
	require.NoError(t, err)
	require.Len(t, settlement.Outcomes, 3)
	assert.Equal(t, int64(6), settlement.Outcomes[0].PlayerID)
	assert.Equal(t, int64(1), settlement.Outcomes[1].PlayerID)
	assert.Equal(t, int64(2), settlement.Outcomes[2].PlayerID)
	assert.True(t, settlement.Outcomes[0].Won)
	assert.False(t, settlement.Outcomes[1].Won)
	assert.True(t, settlement.Outcomes[2].Won)

	// 10+5 and 30+15
	assert.Equal(t, int64(60), wantCredited)
	assert.Equal(t, wantCredited, settlement.TotalCredited)
	assert.Equal(t, 0, settlement.Failed)

	var sum int64
	for _, o := range settlement.Outcomes {
		sum += o.Credited()
	}
	assert.Equal(t, settlement.TotalCredited, sum)

	assert.Equal(t, int64(1005), env.balance(t, 6))
	assert.Equal(t, int64(900), env.balance(t, 1))
	assert.Equal(t, int64(1015), env.balance(t, 2))
}

func TestOnRoundEnd_HugeStakePaysInFull(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		amount  string
	}{
		{"all in", math.MaxInt64 / 2, "all"},
		{"half with money left", math.MaxInt64 - 1, "half"},
		{"all of max", math.MaxInt64, "all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			require.NoError(t, env.wallet.SetBalance(env.ctx, 1, tt.balance))
			env.controller.OnRoundStart(env.ctx)

			// 3 alive vs 1, so uncapped profit would be three times the stake
			w, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", tt.amount)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, w.PotentialProfit, int64(0))
			assert.Positive(t, w.Payout())

			settlement, err := env.controller.OnRoundEnd(env.ctx, domain.SideSecondTeam)
			require.NoError(t, err)
			assert.Equal(t, 0, settlement.Failed)
			require.Len(t, settlement.Outcomes, 1)
			assert.True(t, settlement.Outcomes[0].Won)
			assert.Equal(t, w.Stake+w.PotentialProfit, settlement.TotalCredited)
			assert.Equal(t, int64(math.MaxInt64), env.balance(t, 1))
		})
	}
}

func TestOnRoundEnd_CreditFailure(t *testing.T) {
	env := newTestEnv(t)
	resolver := tokenResolver{tokenFor(1): 1}
	controller := NewRoundController(env.roster, failingCreditWallet{env.wallet}, resolver, env.notifier, domain.DefaultSideTokens(), nil)
	controller.OnRoundStart(env.ctx)

	_, err := controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100")
	require.NoError(t, err)

	settlement, err := controller.OnRoundEnd(env.ctx, domain.SideSecondTeam)
	require.NoError(t, err)
	assert.Equal(t, 1, settlement.Failed)
	assert.Empty(t, settlement.Outcomes)
	assert.Empty(t, env.notifier.outcomes)
	assert.Equal(t, domain.PhaseBettingClosed, controller.State().Phase)
}

func TestOnRoundEnd_RosterUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.controller.OnRoundStart(env.ctx)
	_, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100")
	require.NoError(t, err)

	// Swap in a failing roster for settlement only
	env.controller.roster = brokenRoster{}
	_, err = env.controller.OnRoundEnd(env.ctx, domain.SideSecondTeam)
	require.Error(t, err)
	_, isReject := domain.AsReject(err)
	assert.False(t, isReject)
	assert.Equal(t, 1, env.controller.State().OpenWagers)

	env.controller.roster = env.roster
	_, err = env.controller.OnRoundEnd(env.ctx, domain.SideSecondTeam)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), env.balance(t, 1))
}

func TestPlaceBet_RosterUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.controller.OnRoundStart(env.ctx)
	env.controller.roster = brokenRoster{}

	_, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100")
	require.Error(t, err)
	_, isReject := domain.AsReject(err)
	assert.False(t, isReject)
	assert.Equal(t, int64(1000), env.balance(t, 1))
}

func TestOnRoundStart_ClearsLedger(t *testing.T) {
	env := newTestEnv(t)
	first := env.controller.OnRoundStart(env.ctx)
	_, err := env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100")
	require.NoError(t, err)

	second := env.controller.OnRoundStart(env.ctx)
	assert.NotEqual(t, first, second)
	third := env.controller.OnRoundStart(env.ctx)
	assert.NotEqual(t, second, third)

	state := env.controller.State()
	assert.Equal(t, domain.PhaseBettingOpen, state.Phase)
	assert.Equal(t, 0, state.OpenWagers)
	_, ok := env.controller.PlayerWager(1)
	assert.False(t, ok)

	// A fresh round accepts the same player again
	_, err = env.controller.PlaceBet(env.ctx, tokenFor(1), "ct", "100")
	require.NoError(t, err)
	assert.Equal(t, int64(800), env.balance(t, 1))
}

func TestQuote(t *testing.T) {
	env := newTestEnv(t)
	q, err := env.controller.Quote(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, q.FirstAlive)
	assert.Equal(t, 1, q.SecondAlive)
	assert.True(t, q.Available)
	assert.InDelta(t, 3.0, q.SecondTeam, 1e-9)
}

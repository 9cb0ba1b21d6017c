// Package usecase implements the round-scoped wager ledger and its lifecycle.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	walletDomain "github.com/frankieli/players_bet/internal/modules/wallet/domain"
	"github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/internal/modules/wager/odds"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/frankieli/players_bet/pkg/metrics"
	"github.com/frankieli/players_bet/pkg/service"
)

// RoundController owns the round ledger. Placement and settlement each run
// entirely under one lock, so the duplicate check and settle-then-clear
// can never interleave.
type RoundController struct {
	mu           sync.Mutex
	phase        domain.Phase
	roundID      string
	roundCounter int
	ledger       *domain.Ledger

	roster   service.RosterService
	wallet   service.WalletService
	resolver service.PlayerResolver
	notifier service.OutcomeNotifier
	tokens   domain.SideTokens
	metrics  *metrics.Wager
}

// NewRoundController creates a controller in the betting-closed phase.
// notifier and m may be nil.
func NewRoundController(
	roster service.RosterService,
	wallet service.WalletService,
	resolver service.PlayerResolver,
	notifier service.OutcomeNotifier,
	tokens domain.SideTokens,
	m *metrics.Wager,
) *RoundController {
	return &RoundController{
		phase:    domain.PhaseBettingClosed,
		ledger:   domain.NewLedger(),
		roster:   roster,
		wallet:   wallet,
		resolver: resolver,
		notifier: notifier,
		tokens:   tokens,
		metrics:  m,
	}
}

// OnRoundStart opens betting for a new round. Any wagers left over from the
// previous round are discarded whether or not they were settled.
func (c *RoundController) OnRoundStart(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if leftover := c.ledger.Len(); leftover > 0 {
		logger.Warn(ctx).
			Str("previous_round_id", c.roundID).
			Int("discarded_wagers", leftover).
			Int64("discarded_stake", c.ledger.TotalStaked()).
			Msg("Discarding unsettled wagers from previous round")
	}

	c.roundCounter++
	c.roundID = fmt.Sprintf("%s-%d", time.Now().Format("20060102150405"), c.roundCounter)
	c.ledger.Reset()
	c.phase = domain.PhaseBettingOpen

	logger.Info(ctx).
		Str("round_id", c.roundID).
		Int("round_counter", c.roundCounter).
		Msg("Round started, betting open")

	return c.roundID
}

// OnRoundEnd settles every open wager against winner and closes betting.
//
// A round without a team winner (aborted, draw) credits nobody: the ledger is
// cleared and betting closes. Bettors who disconnected since placing their
// wager are skipped silently; their stake was already taken.
func (c *RoundController) OnRoundEnd(ctx context.Context, winner domain.Side) (*domain.Settlement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	startTime := time.Now()
	ctx = logger.WithRound(ctx, c.roundID)
	settlement := &domain.Settlement{
		RoundID:  c.roundID,
		Winner:   winner,
		Outcomes: make([]domain.Outcome, 0, c.ledger.Len()),
	}

	if !winner.IsTeam() {
		logger.Info(ctx).
			Str("winner", winner.String()).
			Int("discarded_wagers", c.ledger.Len()).
			Msg("Round ended without a team winner, no payouts")
		c.ledger.Reset()
		c.phase = domain.PhaseBettingClosed
		c.metrics.RoundSettled(winner.String(), time.Since(startTime))
		return settlement, nil
	}

	logger.Info(ctx).
		Str("winner", winner.String()).
		Int("open_wagers", c.ledger.Len()).
		Msg("Starting settlement")

	roster, err := c.roster.Snapshot(ctx)
	if err != nil {
		// Leave the ledger intact so a repeated notification can still settle it
		logger.Error(ctx).Err(err).Msg("Roster unavailable, settlement aborted")
		return nil, fmt.Errorf("roster snapshot for settlement: %w", err)
	}

	winCount := 0
	for _, w := range c.ledger.Wagers() {
		if !roster.IsConnected(w.PlayerID) {
			settlement.Skipped++
			c.metrics.Outcome("skipped", 0)
			logger.Debug(ctx).
				Int64("player_id", w.PlayerID).
				Str("wager_id", w.WagerID).
				Msg("Bettor disconnected, skipping")
			continue
		}

		outcome := domain.Outcome{
			RoundID:  w.RoundID,
			WagerID:  w.WagerID,
			PlayerID: w.PlayerID,
			Side:     w.Side,
			Stake:    w.Stake,
			Profit:   w.PotentialProfit,
			Won:      w.Side == winner,
		}

		if outcome.Won {
			if _, err := c.wallet.AddBalance(ctx, w.PlayerID, w.Payout(), "win:"+w.RoundID); err != nil {
				// Don't notify a win the player never received
				settlement.Failed++
				c.metrics.Outcome("failed", 0)
				logger.Error(ctx).
					Err(err).
					Int64("player_id", w.PlayerID).
					Int64("payout", w.Payout()).
					Str("wager_id", w.WagerID).
					Msg("Failed to credit winnings")
				continue
			}
			winCount++
			settlement.TotalCredited += w.Payout()
			c.metrics.Outcome("win", w.Payout())
		} else {
			c.metrics.Outcome("loss", 0)
		}

		settlement.Outcomes = append(settlement.Outcomes, outcome)
		if c.notifier != nil {
			c.notifier.NotifyOutcome(ctx, outcome)
		}
	}

	c.ledger.Reset()
	c.phase = domain.PhaseBettingClosed

	c.metrics.RoundSettled(winner.String(), time.Since(startTime))
	logger.Info(ctx).
		Str("winner", winner.String()).
		Int("settled", len(settlement.Outcomes)).
		Int("win_count", winCount).
		Int("lose_count", len(settlement.Outcomes)-winCount).
		Int("skipped", settlement.Skipped).
		Int("failed", settlement.Failed).
		Int64("total_credited", settlement.TotalCredited).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Settlement completed")

	return settlement, nil
}

// PlaceBet validates and records a wager for the player behind token.
//
// Checks run in a fixed order and stop at the first failure, so a player
// always sees the same message for the same situation. Refusals are returned
// as *domain.RejectError; any other error is a collaborator failure.
func (c *RoundController) PlaceBet(ctx context.Context, token, sideArg, amountArg string) (*domain.Wager, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wager, err := c.placeBet(ctx, token, sideArg, amountArg)
	if err != nil {
		if reject, ok := domain.AsReject(err); ok {
			c.metrics.BetRejected(string(reject.Reason))
			logger.Info(ctx).
				Str("reason", string(reject.Reason)).
				Str("side_arg", sideArg).
				Str("amount_arg", amountArg).
				Msg("Bet rejected")
		} else {
			logger.Error(ctx).Err(err).Msg("Bet failed")
		}
		return nil, err
	}
	return wager, nil
}

func (c *RoundController) placeBet(ctx context.Context, token, sideArg, amountArg string) (*domain.Wager, error) {
	// 1. Player must resolve, be connected and hold an account
	playerID, err := c.resolver.ResolvePlayer(ctx, token)
	if err != nil {
		logger.Debug(ctx).Err(err).Msg("Player token did not resolve")
		return nil, domain.ErrInvalidPlayer
	}
	ctx = logger.WithPlayer(ctx, playerID)

	roster, err := c.roster.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("roster snapshot: %w", err)
	}
	entry, ok := roster.Find(playerID)
	if !ok || !entry.Connected {
		return nil, domain.ErrInvalidPlayer
	}

	balance, err := c.wallet.GetBalance(ctx, playerID)
	if err != nil {
		if errors.Is(err, walletDomain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidPlayer
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}

	// 2. Side token
	side, ok := c.tokens.Parse(sideArg)
	if !ok {
		return nil, &domain.RejectError{
			Reason:  domain.ReasonInvalidArgs,
			Message: fmt.Sprintf("unknown side %q, %s", sideArg, domain.Usage),
		}
	}

	// 3. Amount token
	amount, ok := ParseAmount(amountArg, balance)
	if !ok {
		return nil, &domain.RejectError{
			Reason:  domain.ReasonInvalidArgs,
			Message: fmt.Sprintf("invalid amount %q, %s", amountArg, domain.Usage),
		}
	}

	// 4. Only team members may bet
	if !entry.Side.IsTeam() {
		return nil, domain.ErrSpectating
	}

	// 5. Only dead players may bet
	if entry.Alive {
		return nil, domain.ErrStillAlive
	}

	// 6. Round must be live
	if c.phase != domain.PhaseBettingOpen {
		return nil, domain.ErrRoundNotActive
	}

	// 7. Affordability
	if amount > balance {
		return nil, domain.ErrInsufficientFunds
	}

	// 8. One wager per player per round
	if c.ledger.Has(playerID) {
		return nil, domain.ErrDuplicateBet
	}

	// 9. Both teams need a living combatant
	firstAlive, secondAlive := roster.AliveCounts()
	profit := odds.ComputeProfit(amount, side, firstAlive, secondAlive)
	if profit <= 0 {
		return nil, domain.ErrNoOddsAvailable
	}

	newBalance, err := c.wallet.PlaceBet(ctx, playerID, amount, c.roundID)
	if err != nil {
		switch {
		case errors.Is(err, walletDomain.ErrInsufficientBalance):
			return nil, domain.ErrInsufficientFunds
		case errors.Is(err, walletDomain.ErrAccountNotFound):
			return nil, domain.ErrInvalidPlayer
		}
		return nil, fmt.Errorf("deduct stake: %w", err)
	}

	// Cap the profit so stake plus profit can be credited back without overflow
	if headroom := math.MaxInt64 - newBalance - amount; profit > headroom {
		profit = headroom
	}

	wager := domain.NewWager(c.roundID, playerID, side, amount, profit)
	c.ledger.Put(wager)

	c.metrics.BetPlaced(amount)
	logger.Info(ctx).
		Str("round_id", c.roundID).
		Str("wager_id", wager.WagerID).
		Str("side", side.String()).
		Int64("stake", amount).
		Int64("potential_profit", profit).
		Int("first_alive", firstAlive).
		Int("second_alive", secondAlive).
		Int64("balance", newBalance).
		Msg("Bet placed")

	if c.notifier != nil {
		c.notifier.NotifyPlaced(ctx, wager)
	}
	return wager, nil
}

// State returns a snapshot of the controller
func (c *RoundController) State() domain.RoundState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return domain.RoundState{
		RoundID:     c.roundID,
		Phase:       c.phase,
		OpenWagers:  c.ledger.Len(),
		TotalStaked: c.ledger.TotalStaked(),
	}
}

// PlayerWager returns a copy of the player's wager in the current round
func (c *RoundController) PlayerWager(playerID int64) (domain.Wager, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.ledger.Get(playerID)
	if w == nil {
		return domain.Wager{}, false
	}
	return *w, true
}

// Quote prices both teams from a fresh roster snapshot
func (c *RoundController) Quote(ctx context.Context) (odds.Quote, error) {
	roster, err := c.roster.Snapshot(ctx)
	if err != nil {
		return odds.Quote{}, fmt.Errorf("roster snapshot: %w", err)
	}
	return odds.NewQuote(roster.AliveCounts()), nil
}

package local

import (
	"context"
	"encoding/json"

	gatewayDomain "github.com/frankieli/players_bet/internal/modules/gateway/domain"
	"github.com/frankieli/players_bet/internal/modules/match/machine"
	"github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/frankieli/players_bet/pkg/service"
)

// Round announcements broadcast to every connected player
const (
	CommandRoundStarted = "round_started"
	CommandRoundSettled = "round_settled"
)

// Handler forwards round machine events to the round lifecycle in-process
type Handler struct {
	lifecycle   service.RoundLifecycle
	broadcaster service.GatewayService
}

// NewHandler creates a new local handler. broadcaster may be nil.
func NewHandler(lifecycle service.RoundLifecycle, broadcaster service.GatewayService) *Handler {
	return &Handler{
		lifecycle:   lifecycle,
		broadcaster: broadcaster,
	}
}

type roundStarted struct {
	RoundID     string `json:"round_id"`
	RoundNumber int    `json:"round_number"`
}

type roundSettled struct {
	RoundID       string      `json:"round_id"`
	RoundNumber   int         `json:"round_number"`
	Winner        domain.Side `json:"winner"`
	Winners       int         `json:"winners"`
	TotalCredited int64       `json:"total_credited"`
}

// HandleRoundEvent is registered on the state machine
func (h *Handler) HandleRoundEvent(ctx context.Context, event machine.RoundEvent) {
	switch event.Type {
	case machine.EventRoundStarted:
		roundID := h.lifecycle.OnRoundStart(ctx)
		logger.Debug(ctx).
			Int("round_number", event.RoundNumber).
			Str("round_id", roundID).
			Msg("Machine round mapped to wager round")
		h.broadcast(ctx, CommandRoundStarted, roundStarted{RoundID: roundID, RoundNumber: event.RoundNumber})

	case machine.EventRoundEnded:
		settlement, err := h.lifecycle.OnRoundEnd(ctx, event.Winner)
		if err != nil {
			logger.Error(ctx).Err(err).
				Int("round_number", event.RoundNumber).
				Msg("Settlement failed")
			return
		}
		winners := 0
		for _, o := range settlement.Outcomes {
			if o.Won {
				winners++
			}
		}
		h.broadcast(ctx, CommandRoundSettled, roundSettled{
			RoundID:       settlement.RoundID,
			RoundNumber:   event.RoundNumber,
			Winner:        settlement.Winner,
			Winners:       winners,
			TotalCredited: settlement.TotalCredited,
		})
	}
}

func (h *Handler) broadcast(ctx context.Context, command string, data interface{}) {
	if h.broadcaster == nil {
		return
	}
	msg, err := json.Marshal(gatewayDomain.Envelope{
		Game:    gatewayDomain.GameCode,
		Command: command,
		Data:    data,
	})
	if err != nil {
		logger.Error(ctx).Err(err).Str("command", command).Msg("Failed to marshal broadcast")
		return
	}
	h.broadcaster.Broadcast(msg)
}

// Package usecase implements the business logic for the gateway module.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/frankieli/players_bet/internal/modules/gateway/domain"
	wagerDomain "github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/frankieli/players_bet/pkg/service"
)

// Commands understood over the websocket
const (
	CommandBet   = "bet"
	CommandState = "state"
	CommandOdds  = "odds"
	CommandMyBet = "my_bet"
)

// GatewayUseCase routes player messages to the wager service
type GatewayUseCase struct {
	wagerSvc service.WagerService
}

// NewGatewayUseCase creates a new gateway use case
func NewGatewayUseCase(wagerSvc service.WagerService) *GatewayUseCase {
	return &GatewayUseCase{
		wagerSvc: wagerSvc,
	}
}

// RequestEnvelope is the JSON form of a command
type RequestEnvelope struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

type betPayload struct {
	Side   string `json:"side"`
	Amount string `json:"amount"`
}

// HandleMessage accepts either a JSON envelope or a chat line ("bet t 100")
func (uc *GatewayUseCase) HandleMessage(ctx context.Context, playerID int64, token string, message []byte) ([]byte, error) {
	text := strings.TrimSpace(string(message))
	if strings.HasPrefix(text, "{") {
		var req RequestEnvelope
		if err := json.Unmarshal(message, &req); err != nil {
			return nil, fmt.Errorf("invalid message format: %w", err)
		}
		if req.Command == "" {
			return nil, fmt.Errorf("missing command")
		}
		return uc.dispatchJSON(ctx, playerID, token, req)
	}

	name, args, ok := ParseCommand(text)
	if !ok {
		return nil, fmt.Errorf("empty command")
	}
	return uc.dispatchChat(ctx, playerID, token, name, args)
}

func (uc *GatewayUseCase) dispatchJSON(ctx context.Context, playerID int64, token string, req RequestEnvelope) ([]byte, error) {
	switch req.Command {
	case CommandBet:
		var payload betPayload
		if len(req.Data) > 0 {
			if err := json.Unmarshal(req.Data, &payload); err != nil {
				logger.Warn(ctx).
					Err(err).
					Int64("player_id", playerID).
					Msg("Failed to unmarshal bet payload")
				return nil, fmt.Errorf("invalid bet payload: %w", err)
			}
		}
		return uc.placeBet(ctx, token, payload.Side, payload.Amount)
	default:
		return uc.dispatchChat(ctx, playerID, token, req.Command, nil)
	}
}

func (uc *GatewayUseCase) dispatchChat(ctx context.Context, playerID int64, token, name string, args []string) ([]byte, error) {
	switch name {
	case CommandBet:
		// Wrong arity falls through to the side check and comes back as a usage error
		var sideArg, amountArg string
		if len(args) == 2 {
			sideArg, amountArg = args[0], args[1]
		}
		return uc.placeBet(ctx, token, sideArg, amountArg)

	case CommandState:
		return respond("state_rsp", uc.wagerSvc.State())

	case CommandOdds:
		quote, err := uc.wagerSvc.Quote(ctx)
		if err != nil {
			logger.Error(ctx).Err(err).Msg("Odds quote failed")
			return respond("error", map[string]interface{}{"error": "odds unavailable"})
		}
		return respond("odds_rsp", quote)

	case CommandMyBet:
		wager, ok := uc.wagerSvc.PlayerWager(playerID)
		if !ok {
			return respond("my_bet_rsp", map[string]interface{}{"wager": nil})
		}
		return respond("my_bet_rsp", map[string]interface{}{"wager": wager})

	default:
		logger.Warn(ctx).
			Int64("player_id", playerID).
			Str("command", name).
			Msg("Unknown command")
		return nil, fmt.Errorf("unknown command: %s", name)
	}
}

func (uc *GatewayUseCase) placeBet(ctx context.Context, token, sideArg, amountArg string) ([]byte, error) {
	wager, err := uc.wagerSvc.PlaceBet(ctx, token, sideArg, amountArg)
	if err != nil {
		if reject, ok := wagerDomain.AsReject(err); ok {
			return respond("bet_rsp", map[string]interface{}{
				"error_code": string(reject.Reason),
				"error":      reject.Message,
			})
		}
		return respond("bet_rsp", map[string]interface{}{
			"error_code": "internal_error",
			"error":      "bet could not be processed",
		})
	}

	return respond("bet_rsp", map[string]interface{}{
		"error_code": "",
		"wager":      wager,
		"message":    wagerDomain.PlacedMessage(wager),
	})
}

func respond(command string, data interface{}) ([]byte, error) {
	return json.Marshal(domain.Envelope{
		Game:    domain.GameCode,
		Command: command,
		Data:    data,
	})
}

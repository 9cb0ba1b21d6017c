package notify

import (
	"context"
	"encoding/json"
	"fmt"

	gatewayDomain "github.com/frankieli/players_bet/internal/modules/gateway/domain"
	"github.com/frankieli/players_bet/pkg/service"
)

// GatewaySink pushes events to the owning player's websocket
type GatewaySink struct {
	gateway service.GatewayService
}

func NewGatewaySink(gateway service.GatewayService) *GatewaySink {
	return &GatewaySink{gateway: gateway}
}

func (s *GatewaySink) Name() string { return "ws" }

func (s *GatewaySink) Publish(ctx context.Context, event Event) error {
	msg, err := json.Marshal(gatewayDomain.Envelope{
		Game:    gatewayDomain.GameCode,
		Command: event.Type,
		Data:    event,
	})
	if err != nil {
		return fmt.Errorf("marshal ws frame: %w", err)
	}
	s.gateway.SendToUser(event.PlayerID, msg)
	return nil
}

// Package local provides local adapters for the gateway module.
package local

import (
	"github.com/frankieli/players_bet/internal/modules/gateway/ws"
)

// Handler pushes frames to websocket clients in this process.
// It implements service.GatewayService.
type Handler struct {
	wsManager *ws.Manager
}

// NewHandler creates a new gateway handler
func NewHandler(wsManager *ws.Manager) *Handler {
	return &Handler{
		wsManager: wsManager,
	}
}

// Broadcast sends message to every connected player
func (h *Handler) Broadcast(message []byte) {
	if len(message) == 0 {
		return
	}
	h.wsManager.Broadcast(message)
}

// SendToUser sends message to one player if they are connected here
func (h *Handler) SendToUser(playerID int64, message []byte) {
	if len(message) == 0 {
		return
	}
	h.wsManager.SendToUser(playerID, message)
}

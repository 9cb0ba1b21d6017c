package domain

import (
	"context"
)

// GatewayUseCase defines the interface for gateway business logic
type GatewayUseCase interface {
	// HandleMessage handles a message from a connected player.
	// token is the credential the connection was opened with.
	HandleMessage(ctx context.Context, playerID int64, token string, message []byte) ([]byte, error)
}

// Envelope is the frame used for every message the gateway sends
type Envelope struct {
	Game    string      `json:"game"`
	Command string      `json:"command"`
	Data    interface{} `json:"data"`
}

// GameCode tags every frame sent by this service
const GameCode = "players_bet"

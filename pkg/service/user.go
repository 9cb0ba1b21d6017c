package service

import "context"

// PlayerResolver maps the credential a command arrived with to a player ID
type PlayerResolver interface {
	ResolvePlayer(ctx context.Context, token string) (int64, error)
}

// Package identity resolves the credential attached to a player command.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that does not name a player
var ErrInvalidToken = errors.New("invalid player token")

// JWTResolver issues and validates HS256 player tokens
type JWTResolver struct {
	secret        []byte
	tokenDuration time.Duration
}

// NewJWTResolver creates a new resolver
func NewJWTResolver(secret string, tokenDuration time.Duration) *JWTResolver {
	return &JWTResolver{
		secret:        []byte(secret),
		tokenDuration: tokenDuration,
	}
}

// IssueToken signs a token for the player
func (r *JWTResolver) IssueToken(playerID int64) (string, time.Time, error) {
	expiresAt := time.Now().Add(r.tokenDuration)
	claims := jwt.MapClaims{
		// subject is a string so 64-bit IDs survive the JSON float round trip
		"sub": strconv.FormatInt(playerID, 10),
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(r.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ResolvePlayer implements service.PlayerResolver
func (r *JWTResolver) ResolvePlayer(ctx context.Context, tokenString string) (int64, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return 0, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrInvalidToken
	}
	playerID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || playerID <= 0 {
		return 0, ErrInvalidToken
	}
	return playerID, nil
}

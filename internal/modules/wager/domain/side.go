package domain

import (
	"fmt"
	"strings"
)

// Side is the team a player belongs to or a wager backs
type Side int

const (
	SideNone Side = iota
	SideFirstTeam
	SideSecondTeam
	SideSpectator
)

func (s Side) String() string {
	switch s {
	case SideFirstTeam:
		return "first_team"
	case SideSecondTeam:
		return "second_team"
	case SideSpectator:
		return "spectator"
	default:
		return "none"
	}
}

// IsTeam reports whether s is one of the two competing teams
func (s Side) IsTeam() bool {
	return s == SideFirstTeam || s == SideSecondTeam
}

// Opponent returns the other team, or SideNone for non-team sides
func (s Side) Opponent() Side {
	switch s {
	case SideFirstTeam:
		return SideSecondTeam
	case SideSecondTeam:
		return SideFirstTeam
	default:
		return SideNone
	}
}

// SideTokens maps command tokens to teams. Matching is case-insensitive.
type SideTokens struct {
	FirstTeam  []string
	SecondTeam []string
}

// DefaultSideTokens are the short codes players type in chat
func DefaultSideTokens() SideTokens {
	return SideTokens{
		FirstTeam:  []string{"t"},
		SecondTeam: []string{"ct"},
	}
}

// Parse resolves a side token. Only team sides are ever returned.
func (st SideTokens) Parse(token string) (Side, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return SideNone, false
	}
	for _, t := range st.FirstTeam {
		if strings.ToLower(t) == token {
			return SideFirstTeam, true
		}
	}
	for _, t := range st.SecondTeam {
		if strings.ToLower(t) == token {
			return SideSecondTeam, true
		}
	}
	return SideNone, false
}

// ParseSideName parses the canonical name produced by Side.String.
// Used by the host-facing routes, not by the player command.
func ParseSideName(name string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "first_team":
		return SideFirstTeam, true
	case "second_team":
		return SideSecondTeam, true
	case "spectator":
		return SideSpectator, true
	case "none", "":
		return SideNone, true
	default:
		return SideNone, false
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Side) UnmarshalText(text []byte) error {
	side, ok := ParseSideName(string(text))
	if !ok {
		return fmt.Errorf("unknown side: %q", string(text))
	}
	*s = side
	return nil
}

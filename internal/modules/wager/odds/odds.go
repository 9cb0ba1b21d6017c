// Package odds prices round wagers from the number of living combatants on each team.
package odds

import (
	"math"
	"math/bits"

	"github.com/frankieli/players_bet/internal/modules/wager/domain"
)

// ComputeProfit returns the profit paid on top of the stake if side wins.
//
// The multiplier is opposing/backed, so backing the team with fewer survivors
// pays more than the stake. The product is truncated toward zero. A zero
// result means the round is already decided (a team has nobody left) and no
// bet should be taken.
func ComputeProfit(stake int64, side domain.Side, firstAlive, secondAlive int) int64 {
	backed, opposing, ok := split(side, firstAlive, secondAlive)
	if !ok || stake <= 0 {
		return 0
	}

	// floor(stake*opposing/backed) in 128-bit so large stakes never lose precision
	hi, lo := bits.Mul64(uint64(stake), uint64(opposing))
	if hi >= uint64(backed) {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, uint64(backed))
	if q > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q)
}

// Multiplier returns the display ratio for side, or 0 if no odds exist
func Multiplier(side domain.Side, firstAlive, secondAlive int) float64 {
	backed, opposing, ok := split(side, firstAlive, secondAlive)
	if !ok {
		return 0
	}
	return float64(opposing) / float64(backed)
}

// Quote is the current price of both teams
type Quote struct {
	FirstAlive  int     `json:"first_alive"`
	SecondAlive int     `json:"second_alive"`
	FirstTeam   float64 `json:"first_team"`
	SecondTeam  float64 `json:"second_team"`
	Available   bool    `json:"available"`
}

// NewQuote prices both teams for the given alive counts
func NewQuote(firstAlive, secondAlive int) Quote {
	return Quote{
		FirstAlive:  firstAlive,
		SecondAlive: secondAlive,
		FirstTeam:   Multiplier(domain.SideFirstTeam, firstAlive, secondAlive),
		SecondTeam:  Multiplier(domain.SideSecondTeam, firstAlive, secondAlive),
		Available:   firstAlive > 0 && secondAlive > 0,
	}
}

func split(side domain.Side, firstAlive, secondAlive int) (backed, opposing int, ok bool) {
	if firstAlive <= 0 || secondAlive <= 0 {
		return 0, 0, false
	}
	switch side {
	case domain.SideFirstTeam:
		return firstAlive, secondAlive, true
	case domain.SideSecondTeam:
		return secondAlive, firstAlive, true
	default:
		return 0, 0, false
	}
}

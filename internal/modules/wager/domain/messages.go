package domain

import "fmt"

// PlacedMessage is the confirmation shown to a player after a successful bet
func PlacedMessage(w *Wager) string {
	return fmt.Sprintf("You bet %d on %s, you could win %d", w.Stake, w.Side, w.PotentialProfit)
}

// OutcomeMessage is shown to a player when their wager settles
func OutcomeMessage(o Outcome) string {
	if o.Won {
		return fmt.Sprintf("You won %d on your %d bet", o.Profit, o.Stake)
	}
	return "You lost your bet"
}

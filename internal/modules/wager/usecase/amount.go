package usecase

import (
	"strconv"
	"strings"
)

// Amount tokens accepted in place of a number
const (
	AmountAll  = "all"
	AmountHalf = "half"
)

// ParseAmount resolves the amount argument of a bet against the current balance.
// "half" uses integer division. Only positive results are valid.
func ParseAmount(token string, balance int64) (int64, bool) {
	var amount int64
	switch token = strings.ToLower(strings.TrimSpace(token)); token {
	case AmountAll:
		amount = balance
	case AmountHalf:
		amount = balance / 2
	default:
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return 0, false
		}
		amount = n
	}
	if amount <= 0 {
		return 0, false
	}
	return amount, true
}

package domain

import "errors"

// RejectReason is a stable code for a refused bet
type RejectReason string

const (
	ReasonInvalidPlayer     RejectReason = "invalid_player"
	ReasonInvalidArgs       RejectReason = "invalid_args"
	ReasonSpectating        RejectReason = "spectating"
	ReasonStillAlive        RejectReason = "still_alive"
	ReasonRoundNotActive    RejectReason = "round_not_active"
	ReasonInsufficientFunds RejectReason = "insufficient_funds"
	ReasonDuplicateBet      RejectReason = "duplicate_bet"
	ReasonNoOddsAvailable   RejectReason = "no_odds_available"
)

// Usage is shown alongside invalid argument rejections
const Usage = "usage: bet <t|ct> <amount|all|half>"

// RejectError is an expected, user-facing refusal of a bet.
// It never indicates a fault in the service.
type RejectError struct {
	Reason  RejectReason
	Message string
}

func (e *RejectError) Error() string {
	return e.Message
}

// Is matches any RejectError carrying the same reason
func (e *RejectError) Is(target error) bool {
	t, ok := target.(*RejectError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

var (
	ErrInvalidPlayer     = &RejectError{Reason: ReasonInvalidPlayer, Message: "you cannot bet right now"}
	ErrInvalidArgs       = &RejectError{Reason: ReasonInvalidArgs, Message: Usage}
	ErrSpectating        = &RejectError{Reason: ReasonSpectating, Message: "spectators cannot bet"}
	ErrStillAlive        = &RejectError{Reason: ReasonStillAlive, Message: "you can only bet once you are dead"}
	ErrRoundNotActive    = &RejectError{Reason: ReasonRoundNotActive, Message: "bets are only accepted during a round"}
	ErrInsufficientFunds = &RejectError{Reason: ReasonInsufficientFunds, Message: "you do not have enough money for this bet"}
	ErrDuplicateBet      = &RejectError{Reason: ReasonDuplicateBet, Message: "you already placed a bet this round"}
	ErrNoOddsAvailable   = &RejectError{Reason: ReasonNoOddsAvailable, Message: "no odds available, you cannot bet now"}
)

// AsReject extracts the RejectError from err, if any
func AsReject(err error) (*RejectError, bool) {
	var r *RejectError
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

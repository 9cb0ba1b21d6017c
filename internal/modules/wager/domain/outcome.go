package domain

// Phase is the betting window of the current round
type Phase int

const (
	PhaseBettingClosed Phase = iota
	PhaseBettingOpen
)

func (p Phase) String() string {
	if p == PhaseBettingOpen {
		return "betting_open"
	}
	return "betting_closed"
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Outcome is the per-wager result emitted during settlement
type Outcome struct {
	RoundID  string `json:"round_id"`
	WagerID  string `json:"wager_id"`
	PlayerID int64  `json:"player_id"`
	Side     Side   `json:"side"`
	Stake    int64  `json:"stake"`
	Profit   int64  `json:"profit"`
	Won      bool   `json:"won"`
}

// Credited is the amount returned to the player
func (o Outcome) Credited() int64 {
	if !o.Won {
		return 0
	}
	return o.Stake + o.Profit
}

// Settlement summarises one round end
type Settlement struct {
	RoundID       string    `json:"round_id"`
	Winner        Side      `json:"winner"`
	Outcomes      []Outcome `json:"outcomes"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	TotalCredited int64     `json:"total_credited"`
}

// RoundState is a read-only view of the controller
type RoundState struct {
	RoundID     string `json:"round_id"`
	Phase       Phase  `json:"phase"`
	OpenWagers  int    `json:"open_wagers"`
	TotalStaked int64  `json:"total_staked"`
}

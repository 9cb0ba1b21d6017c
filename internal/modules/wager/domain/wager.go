package domain

import (
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Wager is a single player's stake on a side for one round.
// It is never mutated after the controller creates it.
type Wager struct {
	WagerID         string    `json:"wager_id"`
	RoundID         string    `json:"round_id"`
	PlayerID        int64     `json:"player_id"`
	Side            Side      `json:"side"`
	Stake           int64     `json:"stake"`
	PotentialProfit int64     `json:"potential_profit"`
	PlacedAt        time.Time `json:"placed_at"`
}

// Payout is what a winning wager credits back, saturating at math.MaxInt64
func (w *Wager) Payout() int64 {
	if w.PotentialProfit > math.MaxInt64-w.Stake {
		return math.MaxInt64
	}
	return w.Stake + w.PotentialProfit
}

var (
	node     *snowflake.Node
	nodeOnce sync.Once
	nodeID   int64 = 1
)

// SetNodeID sets the snowflake node used for wager IDs.
// Must be called before the first wager is created.
func SetNodeID(id int64) {
	nodeID = id
}

func initSnowflake() {
	var err error
	node, err = snowflake.NewNode(nodeID)
	if err != nil {
		panic(err)
	}
}

// NewWager creates a new wager
func NewWager(roundID string, playerID int64, side Side, stake, profit int64) *Wager {
	return &Wager{
		WagerID:         generateWagerID(),
		RoundID:         roundID,
		PlayerID:        playerID,
		Side:            side,
		Stake:           stake,
		PotentialProfit: profit,
		PlacedAt:        time.Now(),
	}
}

func generateWagerID() string {
	nodeOnce.Do(initSnowflake)
	return node.Generate().String()
}

package domain

// Ledger holds the open wagers of the round in progress, keyed by player.
// Not safe for concurrent use; the round controller guards it.
type Ledger struct {
	wagers map[int64]*Wager
	order  []int64
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		wagers: make(map[int64]*Wager),
	}
}

// Has reports whether the player already holds a wager
func (l *Ledger) Has(playerID int64) bool {
	_, ok := l.wagers[playerID]
	return ok
}

// Get returns the player's wager, or nil
func (l *Ledger) Get(playerID int64) *Wager {
	return l.wagers[playerID]
}

// Put inserts a wager. It returns false and leaves the ledger untouched
// if the player already has one.
func (l *Ledger) Put(w *Wager) bool {
	if l.Has(w.PlayerID) {
		return false
	}
	l.wagers[w.PlayerID] = w
	l.order = append(l.order, w.PlayerID)
	return true
}

// Wagers returns the wagers in placement order
func (l *Ledger) Wagers() []*Wager {
	out := make([]*Wager, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.wagers[id])
	}
	return out
}

// Len returns the number of open wagers
func (l *Ledger) Len() int {
	return len(l.wagers)
}

// TotalStaked sums the stakes of all open wagers
func (l *Ledger) TotalStaked() int64 {
	var total int64
	for _, w := range l.wagers {
		total += w.Stake
	}
	return total
}

// Reset discards every wager
func (l *Ledger) Reset() {
	l.wagers = make(map[int64]*Wager)
	l.order = nil
}

package domain

// RosterEntry is the live status of one player at snapshot time
type RosterEntry struct {
	PlayerID  int64 `json:"player_id"`
	Side      Side  `json:"side"`
	Connected bool  `json:"connected"`
	Alive     bool  `json:"alive"`
}

// IsCombatant reports whether the entry counts toward its team's alive count
func (e RosterEntry) IsCombatant() bool {
	return e.Connected && e.Side.IsTeam() && e.Alive
}

// Roster is a point-in-time snapshot of every known player.
// It is a plain value; nothing in it refers back to live game objects.
type Roster []RosterEntry

// Find returns the entry for a player
func (r Roster) Find(playerID int64) (RosterEntry, bool) {
	for _, e := range r {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return RosterEntry{}, false
}

// IsConnected reports whether the player is present and connected
func (r Roster) IsConnected(playerID int64) bool {
	e, ok := r.Find(playerID)
	return ok && e.Connected
}

// AliveCounts returns the number of living combatants on each team.
// Disconnected, spectating, unassigned and dead players are excluded.
func (r Roster) AliveCounts() (firstAlive, secondAlive int) {
	for _, e := range r {
		if !e.IsCombatant() {
			continue
		}
		switch e.Side {
		case SideFirstTeam:
			firstAlive++
		case SideSecondTeam:
			secondAlive++
		}
	}
	return firstAlive, secondAlive
}

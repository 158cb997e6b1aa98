package game

// EncounterState counts cleared enemies and decides the next tier.
type EncounterState struct {
	EnemiesKilled int  `json:"enemiesKilled"`
	IsBossRound   bool `json:"isBossRound"`

	bossEvery int
}

// NewEncounterState starts at zero kills with a normal enemy.
func NewEncounterState(bossEvery int) EncounterState {
	return EncounterState{bossEvery: bossEvery}
}

// Advance records one cleared enemy and re-evaluates the boss flag.
// Called exactly once per respawn.
func (e *EncounterState) Advance() bool {
	e.EnemiesKilled++
	e.IsBossRound = e.bossEvery > 0 && e.EnemiesKilled%e.bossEvery == 0
	return e.IsBossRound
}

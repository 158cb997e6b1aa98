package game

// StatBlock holds the mutable combat attributes of one actor.
// Health may go negative; IsDead is the only death test.
type StatBlock struct {
	MaxHealth int `json:"maxHealth"`
	Health    int `json:"health"`
	Damage    int `json:"damage"`
	Defense   int `json:"defense"`
}

// NewStatBlock creates a stat block at full health.
func NewStatBlock(maxHealth, damage, defense int) StatBlock {
	return StatBlock{
		MaxHealth: maxHealth,
		Health:    maxHealth,
		Damage:    damage,
		Defense:   defense,
	}
}

// IsDead reports whether health has reached zero or below.
func (s *StatBlock) IsDead() bool {
	return s.Health <= 0
}

// TakeDamage subtracts raw damage. No clamping: overkill is kept.
func (s *StatBlock) TakeDamage(amount int) {
	s.Health -= amount
}

// Restore refills health to max.
func (s *StatBlock) Restore() {
	s.Health = s.MaxHealth
}

// DisplayHealth clamps health to [0, MaxHealth] for presentation.
func (s *StatBlock) DisplayHealth() int {
	switch {
	case s.Health < 0:
		return 0
	case s.Health > s.MaxHealth:
		return s.MaxHealth
	default:
		return s.Health
	}
}

// HealthRatio returns the clamped fill ratio in [0, 1].
func (s *StatBlock) HealthRatio() float64 {
	if s.MaxHealth <= 0 {
		return 0
	}
	return float64(s.DisplayHealth()) / float64(s.MaxHealth)
}

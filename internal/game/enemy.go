package game

// EnemyState is the enemy's animation/combat state.
type EnemyState uint8

const (
	EnemyIdle   EnemyState = iota // Waiting for the player to come in range
	EnemyAttack                   // Mid-swing
	EnemyDown                     // Defeated, waiting to be scrolled away
	numEnemyStates
)

// String returns the state tag.
func (s EnemyState) String() string {
	switch s {
	case EnemyIdle:
		return "idle"
	case EnemyAttack:
		return "attack"
	case EnemyDown:
		return "down"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state as its tag.
func (s EnemyState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Enemy is the current opponent. One instance is reused across respawns.
type Enemy struct {
	State        EnemyState
	X            int
	Stats        StatBlock
	Boss         bool
	HitLanded    bool  // Current swing already connected
	LastAttackMs int64 // Cooldown stamp, taken when a swing starts

	defeatProcessed bool
	clocks          [numEnemyStates]AnimationClock
}

// NewEnemy creates an idle enemy of the given tier at x.
func NewEnemy(t Tier, x int) *Enemy {
	e := &Enemy{}
	e.Respawn(t, x)
	return e
}

// Clock returns the clock slot of the active state.
func (e *Enemy) Clock() *AnimationClock {
	return &e.clocks[e.State]
}

// Frame returns the current frame of the active state.
func (e *Enemy) Frame() int {
	return e.clocks[e.State].Frame
}

// Respawn resets the enemy into a fresh tier at x. The attack cooldown
// stamp carries over.
func (e *Enemy) Respawn(t Tier, x int) {
	e.State = EnemyIdle
	e.X = x
	e.Boss = t.Boss
	e.Stats = NewStatBlock(t.MaxHealth, t.Damage, 0)
	e.HitLanded = false
	e.defeatProcessed = false
	e.clocks = [numEnemyStates]AnimationClock{}
}

// StartAttack enters Attack from Idle and stamps the cooldown.
func (e *Enemy) StartAttack(nowMs int64) bool {
	if e.State != EnemyIdle {
		return false
	}
	e.State = EnemyAttack
	e.clocks[EnemyAttack].Reset()
	e.HitLanded = false
	e.LastAttackMs = nowMs
	return true
}

func (e *Enemy) endSwing() {
	e.clocks[EnemyAttack].Reset()
	e.State = EnemyIdle
	e.HitLanded = false
}

// defeat moves the enemy to Down. Returns false if the defeat was already
// processed, so rewards are paid once.
func (e *Enemy) defeat() bool {
	if e.defeatProcessed {
		return false
	}
	e.defeatProcessed = true
	e.State = EnemyDown
	e.HitLanded = false
	e.clocks[EnemyDown].Reset()
	return true
}

// EnemyPolicy decides when an idle enemy starts a swing.
type EnemyPolicy interface {
	WantsAttack(e *Enemy, p *Player, nowMs int64) bool
}

// MeleePolicy attacks whenever the player is in range and the cooldown
// has elapsed.
type MeleePolicy struct {
	Reach      int
	Range      int
	CooldownMs int64
}

// NewMeleePolicy builds the stock policy from the balance.
func NewMeleePolicy(b Balance) MeleePolicy {
	return MeleePolicy{Reach: b.Reach, Range: b.MeleeRange, CooldownMs: b.EnemyCooldownMs}
}

// WantsAttack implements EnemyPolicy.
func (m MeleePolicy) WantsAttack(e *Enemy, p *Player, nowMs int64) bool {
	if !InRange(p.X+m.Reach, e.X, m.Range) {
		return false
	}
	return nowMs-e.LastAttackMs > m.CooldownMs
}

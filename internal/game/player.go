package game

// PlayerState is the player's animation/combat state. Exactly one is active.
type PlayerState uint8

const (
	PlayerIdle   PlayerState = iota // Standing, ready to act
	PlayerRun                       // Moving right, scrolls the world
	PlayerBlock                     // Guarding, enemy hits are voided
	PlayerAttack                    // Mid-swing (normal or ultimate)
	PlayerDown                      // Knocked out, terminal
	numPlayerStates
)

// String returns the state tag the renderer keys sprites on.
func (s PlayerState) String() string {
	switch s {
	case PlayerIdle:
		return "idle"
	case PlayerRun:
		return "run"
	case PlayerBlock:
		return "block"
	case PlayerAttack:
		return "attack"
	case PlayerDown:
		return "down"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state as its tag.
func (s PlayerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Player is the user-controlled fighter.
type Player struct {
	State     PlayerState
	X         int
	Stats     StatBlock
	Ultimate  bool // Current swing is the ultimate
	HitLanded bool // Current swing already connected

	clocks [numPlayerStates]AnimationClock
}

// NewPlayer creates a fresh player at the balance's base stats.
func NewPlayer(b Balance) *Player {
	return &Player{
		State: PlayerIdle,
		X:     b.PlayerX,
		Stats: NewStatBlock(b.PlayerMaxHealth, b.PlayerDamage, b.PlayerDefense),
	}
}

// Clock returns the clock slot of the active state.
func (p *Player) Clock() *AnimationClock {
	return &p.clocks[p.State]
}

// Frame returns the current frame of the active state.
func (p *Player) Frame() int {
	return p.clocks[p.State].Frame
}

// ReachX is where the player's fist lands.
func (p *Player) ReachX(b Balance) int {
	return p.X + b.Reach
}

// CanAttack reports whether an attack intent would be accepted.
func (p *Player) CanAttack() bool {
	return p.State == PlayerIdle
}

// StartRun enters Run from Idle.
func (p *Player) StartRun() bool {
	if p.State != PlayerIdle {
		return false
	}
	p.State = PlayerRun
	return true
}

// StopRun returns to Idle from Run.
func (p *Player) StopRun() bool {
	if p.State != PlayerRun {
		return false
	}
	p.State = PlayerIdle
	return true
}

// RaiseBlock enters Block from Idle. Running or swinging players can't guard.
func (p *Player) RaiseBlock() bool {
	if p.State != PlayerIdle {
		return false
	}
	p.State = PlayerBlock
	return true
}

// LowerBlock returns to Idle from Block.
func (p *Player) LowerBlock() bool {
	if p.State != PlayerBlock {
		return false
	}
	p.State = PlayerIdle
	return true
}

// StartAttack begins a new swing from Idle. The caller checks (and pays)
// the power cost of an ultimate.
func (p *Player) StartAttack(ultimate bool) bool {
	if !p.CanAttack() {
		return false
	}
	p.State = PlayerAttack
	p.clocks[PlayerAttack].Reset()
	p.HitLanded = false
	p.Ultimate = ultimate
	return true
}

// endSwing closes the swing whether or not it connected.
func (p *Player) endSwing() {
	p.clocks[PlayerAttack].Reset()
	p.State = PlayerIdle
	p.HitLanded = false
	p.Ultimate = false
}

// knockDown puts the player in the terminal Down state.
func (p *Player) knockDown() {
	p.State = PlayerDown
	p.HitLanded = false
	p.Ultimate = false
	p.clocks[PlayerDown].Reset()
}

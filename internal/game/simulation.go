package game

// Phase is the session-level mode. Combat only ticks while Playing.
type Phase uint8

const (
	PhaseMenu    Phase = iota // Title screen, waiting for Start
	PhasePlaying              // Combat ticking
	PhaseShop                 // Upgrade shop open, combat paused
	PhaseQuit                 // Session over
)

// String returns the phase tag.
func (p Phase) String() string {
	switch p {
	case PhaseMenu:
		return "menu"
	case PhasePlaying:
		return "playing"
	case PhaseShop:
		return "shop"
	case PhaseQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase as its tag.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Simulation is the whole fight: both actors, the trackers and the
// economy. It is single-writer and not safe for concurrent use; Engine
// serialises access.
type Simulation struct {
	Balance   Balance
	Phase     Phase
	Player    *Player
	Enemy     *Enemy
	Combo     ComboPowerTracker
	Economy   Economy
	Encounter EncounterState
	Policy    EnemyPolicy

	Score   int
	ScrollX int    // Background offset, wraps at Balance.BackgroundWrap
	Shake   int    // Screen shake for the renderer, decays 1 per tick
	Tick    uint64 // Combat ticks simulated (paused phases don't count)

	now    int64
	events []Event
}

// NewSimulation builds a session in the menu phase.
func NewSimulation(b Balance) *Simulation {
	return &Simulation{
		Balance:   b,
		Phase:     PhaseMenu,
		Player:    NewPlayer(b),
		Enemy:     NewEnemy(b.TierFor(false), b.EnemyStartX),
		Combo:     NewComboPowerTracker(b.ComboTimeoutMs, b.PowerPerHit, b.PowerMax),
		Economy:   NewEconomy(b),
		Encounter: NewEncounterState(b.BossEvery),
		Policy:    NewMeleePolicy(b),
	}
}

// Step applies this tick's intents, then advances combat one tick if the
// session is playing. nowMs is read once by the caller and used for every
// timing comparison in the step. The returned events belong to the caller.
func (s *Simulation) Step(nowMs int64, intents ...Intent) []Event {
	s.now = nowMs
	s.events = nil

	for _, in := range intents {
		s.apply(in)
	}

	if s.Phase == PhasePlaying {
		s.advance()
	}

	return s.events
}

func (s *Simulation) emit(ev Event) {
	ev.Tick = s.Tick
	ev.AtMs = s.now
	s.events = append(s.events, ev)
}

// apply routes one intent through the guards of the current phase.
// Rejected intents are silent no-ops.
func (s *Simulation) apply(in Intent) {
	if in.Kind == IntentQuit {
		if s.Phase != PhaseQuit {
			s.Phase = PhaseQuit
			s.emit(Event{Type: EventQuit})
		}
		return
	}

	switch s.Phase {
	case PhaseMenu:
		if in.Kind == IntentStart {
			s.Phase = PhasePlaying
			s.emit(Event{Type: EventIntroStart})
		}
	case PhaseShop:
		s.applyShop(in)
	case PhasePlaying:
		s.applyCombat(in)
	}
}

func (s *Simulation) applyShop(in Intent) {
	switch in.Kind {
	case IntentPurchase:
		if s.Economy.Purchase(in.Category, &s.Player.Stats) {
			s.emit(Event{Type: EventShopPurchase, Category: in.Category.String(), Coins: s.Economy.Coins})
		}
	case IntentCloseShop:
		s.Phase = PhasePlaying
		s.emit(Event{Type: EventShopClosed})
	}
}

func (s *Simulation) applyCombat(in Intent) {
	p := s.Player
	if p.State == PlayerDown {
		return
	}

	switch in.Kind {
	case IntentMoveStart:
		if !s.approachBlocked() {
			p.StartRun()
		}
	case IntentMoveStop:
		p.StopRun()
	case IntentBlockStart:
		if p.RaiseBlock() {
			s.emit(Event{Type: EventBlockRaised})
		}
	case IntentBlockStop:
		p.LowerBlock()
	case IntentAttack:
		if p.StartAttack(false) {
			s.emit(Event{Type: EventPlayerPunch})
		}
	case IntentUltimate:
		if p.CanAttack() && s.Combo.ConsumePower() {
			p.StartAttack(true)
			s.emit(Event{Type: EventUltimateFired, Ultimate: true})
		}
	case IntentOpenShop:
		if p.State != PlayerAttack && s.Enemy.State != EnemyAttack {
			s.Phase = PhaseShop
			s.emit(Event{Type: EventShopOpened})
		}
	}
}

// advance runs one combat tick: player phase, then enemy phase, on the
// same timestamp.
func (s *Simulation) advance() {
	s.Tick++
	if s.Shake > 0 {
		s.Shake--
	}
	s.Combo.Decay(s.now)

	s.stepPlayer()
	s.stepEnemy()
}

func (s *Simulation) stepPlayer() {
	p, b := s.Player, s.Balance
	clock := p.Clock()

	switch p.State {
	case PlayerDown:
		clock.Settle(b.DownRate, DownFrameCap)
	case PlayerAttack:
		rate := b.PunchRate
		if p.Ultimate {
			rate = b.UltimateRate
		}
		done := clock.Swing(rate)
		if clock.InHitWindow() {
			s.resolvePlayerSwing()
		}
		if done {
			p.endSwing()
		}
	case PlayerBlock:
		// Guard holds; nothing advances.
	case PlayerRun:
		s.scroll()
		clock.Loop(b.RunRate)
	default:
		clock.Loop(b.IdleRate)
	}
}

// approachBlocked reports whether a living enemy has reached the approach
// line. Moving is refused and the world holds still until it goes down.
func (s *Simulation) approachBlocked() bool {
	return s.Enemy.State != EnemyDown && s.Enemy.X < s.Balance.ApproachStopX
}

// scroll moves the world under a running player. A living enemy stops the
// scroll at the approach line; a dead one is carried off and replaced once
// it crosses the despawn boundary.
func (s *Simulation) scroll() {
	b, e := s.Balance, s.Enemy
	if s.approachBlocked() {
		return
	}

	s.ScrollX -= b.ScrollSpeed
	e.X -= b.ScrollSpeed
	if s.ScrollX <= b.BackgroundWrap {
		s.ScrollX = 0
	}

	if s.PastDespawnBoundary() {
		s.spawnEnemy()
	}
}

// PastDespawnBoundary reports whether the defeated enemy has been carried
// far enough off screen to be replaced.
func (s *Simulation) PastDespawnBoundary() bool {
	return s.Enemy.State == EnemyDown && s.Enemy.X < s.Balance.DespawnX
}

func (s *Simulation) stepEnemy() {
	p, e, b := s.Player, s.Enemy, s.Balance

	if e.Stats.IsDead() && e.State != EnemyDown {
		s.defeatEnemy()
	}

	clock := e.Clock()
	switch e.State {
	case EnemyDown:
		clock.Settle(b.DownRate, DownFrameCap)
	case EnemyAttack:
		done := clock.Swing(b.EnemyPunchRate)
		if clock.InHitWindow() {
			s.resolveEnemySwing()
		}
		if done {
			e.endSwing()
		}
	default:
		clock.Loop(b.IdleRate)
		if p.State != PlayerDown && s.Policy != nil && s.Policy.WantsAttack(e, p, s.now) {
			e.StartAttack(s.now)
			s.emit(Event{Type: EventEnemySwing, Boss: e.Boss})
		}
	}
}

// Now returns the timestamp of the latest step.
func (s *Simulation) Now() int64 {
	return s.now
}

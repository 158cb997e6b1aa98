package game

import (
	"sync/atomic"
	"time"
)

// PlayerSnapshot is an immutable copy of player state for rendering
type PlayerSnapshot struct {
	State     PlayerState `json:"state"`
	Frame     int         `json:"frame"`
	X         int         `json:"x"`
	Health    int         `json:"health"` // Clamped for display
	MaxHealth int         `json:"maxHealth"`
	Damage    int         `json:"damage"`
	Defense   int         `json:"defense"`
	Ultimate  bool        `json:"ultimate"`
}

// EnemySnapshot is an immutable copy of enemy state for rendering
type EnemySnapshot struct {
	State     EnemyState `json:"state"`
	Frame     int        `json:"frame"`
	X         int        `json:"x"`
	Health    int        `json:"health"` // Clamped for display
	MaxHealth int        `json:"maxHealth"`
	Boss      bool       `json:"boss"`
}

// Snapshot is everything the renderer and API read after a tick.
// Value types only, so a copy shares nothing with the pool.
type Snapshot struct {
	Sequence  uint64    `json:"sequence"`  // Monotonic publish counter
	Timestamp time.Time `json:"timestamp"` // When it was published
	Tick      uint64    `json:"tick"`
	AtMs      int64     `json:"atMs"`
	Phase     Phase     `json:"phase"`

	Player PlayerSnapshot `json:"player"`
	Enemy  EnemySnapshot  `json:"enemy"`

	Combo         int  `json:"combo"`
	Power         int  `json:"power"`
	PowerMax      int  `json:"powerMax"`
	UltimateReady bool `json:"ultimateReady"`

	Score         int  `json:"score"`
	Coins         int  `json:"coins"`
	EnemiesKilled int  `json:"enemiesKilled"`
	BossRound     bool `json:"bossRound"`

	ShopOpen    bool `json:"shopOpen"`
	DamageCost  int  `json:"damageCost"`
	HealthCost  int  `json:"healthCost"`
	DefenseCost int  `json:"defenseCost"`

	ScrollX int `json:"scrollX"`
	Shake   int `json:"shake"`
}

// Prices returns the shop prices keyed by category name.
func (s *Snapshot) Prices() map[string]int {
	return map[string]int{
		UpgradeDamage.String():  s.DamageCost,
		UpgradeHealth.String():  s.HealthCost,
		UpgradeDefense.String(): s.DefenseCost,
	}
}

// CaptureInto fills dst with the simulation's current state. Sequence and
// Timestamp are left to the caller.
func (s *Simulation) CaptureInto(dst *Snapshot) {
	p, e := s.Player, s.Enemy

	dst.Tick = s.Tick
	dst.AtMs = s.now
	dst.Phase = s.Phase

	dst.Player = PlayerSnapshot{
		State:     p.State,
		Frame:     p.Frame(),
		X:         p.X,
		Health:    p.Stats.DisplayHealth(),
		MaxHealth: p.Stats.MaxHealth,
		Damage:    p.Stats.Damage,
		Defense:   p.Stats.Defense,
		Ultimate:  p.Ultimate,
	}
	dst.Enemy = EnemySnapshot{
		State:     e.State,
		Frame:     e.Frame(),
		X:         e.X,
		Health:    e.Stats.DisplayHealth(),
		MaxHealth: e.Stats.MaxHealth,
		Boss:      e.Boss,
	}

	dst.Combo = s.Combo.Count
	dst.Power = s.Combo.Power
	dst.PowerMax = s.Combo.PowerMax()
	dst.UltimateReady = s.Combo.UltimateReady()

	dst.Score = s.Score
	dst.Coins = s.Economy.Coins
	dst.EnemiesKilled = s.Encounter.EnemiesKilled
	dst.BossRound = s.Encounter.IsBossRound

	dst.ShopOpen = s.Phase == PhaseShop
	dst.DamageCost = s.Economy.Cost(UpgradeDamage)
	dst.HealthCost = s.Economy.Cost(UpgradeHealth)
	dst.DefenseCost = s.Economy.Cost(UpgradeDefense)

	dst.ScrollX = s.ScrollX
	dst.Shake = s.Shake
}

// Snapshot returns a standalone copy of the current state.
func (s *Simulation) Snapshot() Snapshot {
	var snap Snapshot
	s.CaptureInto(&snap)
	snap.Timestamp = time.Now()
	return snap
}

// SnapshotPool triple-buffers snapshots so the tick writer never blocks a
// reader.
type SnapshotPool struct {
	snapshots [3]Snapshot
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates an empty pool
func NewSnapshotPool() *SnapshotPool {
	return &SnapshotPool{}
}

// AcquireWrite gets the next write slot (producer only, called from the tick)
func (p *SnapshotPool) AcquireWrite() *Snapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]
	*snap = Snapshot{}

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// PublishWrite marks the write complete and makes it the read slot
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (consumer side). The slot is
// rewritten three publishes later; callers that keep it longer use Read.
func (p *SnapshotPool) AcquireRead() *Snapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// Read copies the latest complete snapshot out of the ring
func (p *SnapshotPool) Read() Snapshot {
	return *p.AcquireRead()
}

package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameMs = 16

// newFight returns a playing session with the enemy point blank and the
// AI switched off.
func newFight(t *testing.T) *Simulation {
	t.Helper()
	s := NewSimulation(DefaultBalance())
	s.Policy = nil
	s.Step(0, Intent{Kind: IntentStart})
	require.Equal(t, PhasePlaying, s.Phase)
	s.Enemy.X = s.Player.ReachX(s.Balance)
	return s
}

// run steps n times, frameMs apart, after the given start time, and
// returns every event plus the last timestamp used.
func run(s *Simulation, from int64, n int) ([]Event, int64) {
	var all []Event
	now := from
	for i := 0; i < n; i++ {
		now += frameMs
		all = append(all, s.Step(now)...)
	}
	return all, now
}

func countEvents(events []Event, typ EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func findEvent(events []Event, typ EventType) (Event, bool) {
	for _, ev := range events {
		if ev.Type == typ {
			return ev, true
		}
	}
	return Event{}, false
}

func TestMenuIgnoresCombatIntents(t *testing.T) {
	s := NewSimulation(DefaultBalance())

	events := s.Step(0, Intent{Kind: IntentAttack}, Intent{Kind: IntentMoveStart})
	assert.Empty(t, events)
	assert.Equal(t, PhaseMenu, s.Phase)
	assert.Equal(t, PlayerIdle, s.Player.State)
	assert.Zero(t, s.Tick, "menu does not tick")

	events = s.Step(16, Intent{Kind: IntentStart})
	require.NotEmpty(t, events)
	assert.Equal(t, EventIntroStart, events[0].Type)
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, uint64(1), s.Tick)
}

func TestSingleHitPerSwing(t *testing.T) {
	s := newFight(t)

	events := s.Step(frameMs, Intent{Kind: IntentAttack})
	require.Equal(t, PlayerAttack, s.Player.State)
	_, punched := findEvent(events, EventPlayerPunch)
	assert.True(t, punched)

	// 18 more ticks at +3 put the clock on 57, one tick short of the window
	events, now := run(s, frameMs, 18)
	assert.Equal(t, 57, s.Player.Frame())
	assert.Zero(t, countEvents(events, EventPlayerHitLanded))

	events, now = run(s, now, 1)
	assert.Equal(t, 60, s.Player.Frame())
	require.Equal(t, 1, countEvents(events, EventPlayerHitLanded))
	assert.Equal(t, 75, s.Enemy.Stats.Health)

	// Rest of the window and the swing
	events, _ = run(s, now, 20)
	assert.Zero(t, countEvents(events, EventPlayerHitLanded), "one hit per swing")
	assert.Equal(t, 75, s.Enemy.Stats.Health)

	assert.Equal(t, PlayerIdle, s.Player.State, "swing ends at frame 120")
	assert.False(t, s.Player.HitLanded, "hit flag cleared when the swing ends")
	assert.Equal(t, 1, s.Combo.Count)
	assert.Equal(t, 10, s.Combo.Power)
}

func TestSwingOutOfRangeWhiffs(t *testing.T) {
	s := newFight(t)
	s.Enemy.X = s.Player.ReachX(s.Balance) + s.Balance.MeleeRange

	s.Step(frameMs, Intent{Kind: IntentAttack})
	events, _ := run(s, frameMs, 39)

	assert.Zero(t, countEvents(events, EventPlayerHitLanded))
	assert.Equal(t, 100, s.Enemy.Stats.Health)
	assert.Equal(t, PlayerIdle, s.Player.State, "swing completes even on a miss")
}

func TestAttackGuards(t *testing.T) {
	s := newFight(t)

	s.Step(frameMs, Intent{Kind: IntentMoveStart})
	require.Equal(t, PlayerRun, s.Player.State)

	s.Step(2*frameMs, Intent{Kind: IntentAttack}, Intent{Kind: IntentBlockStart})
	assert.Equal(t, PlayerRun, s.Player.State, "no attack or block while running")

	s.Step(3*frameMs, Intent{Kind: IntentMoveStop}, Intent{Kind: IntentBlockStart})
	require.Equal(t, PlayerBlock, s.Player.State)

	s.Step(4*frameMs, Intent{Kind: IntentAttack}, Intent{Kind: IntentMoveStart})
	assert.Equal(t, PlayerBlock, s.Player.State, "no attack or run while blocking")

	s.Step(5*frameMs, Intent{Kind: IntentBlockStop}, Intent{Kind: IntentAttack})
	assert.Equal(t, PlayerAttack, s.Player.State)

	frame := s.Player.Frame()
	s.Step(6*frameMs, Intent{Kind: IntentAttack})
	assert.Equal(t, frame+3, s.Player.Frame(), "a second attack does not restart the swing")
}

func TestComboDecaysDuringPlay(t *testing.T) {
	s := newFight(t)
	s.Combo.RegisterHit(1000, false)

	s.Step(2999)
	assert.Equal(t, 1, s.Combo.Count)

	s.Step(3001)
	assert.Equal(t, 0, s.Combo.Count)
}

func TestUltimateGating(t *testing.T) {
	s := newFight(t)
	s.Player.Stats.Damage = 999

	s.Combo.Charge(99)
	events := s.Step(frameMs, Intent{Kind: IntentUltimate})
	assert.Equal(t, PlayerIdle, s.Player.State)
	assert.Equal(t, 99, s.Combo.Power)
	assert.Zero(t, countEvents(events, EventUltimateFired))

	s.Combo.Charge(100)
	events = s.Step(2*frameMs, Intent{Kind: IntentUltimate})
	require.Equal(t, PlayerAttack, s.Player.State)
	assert.True(t, s.Player.Ultimate)
	assert.Equal(t, 0, s.Combo.Power, "the whole meter is consumed")
	assert.Equal(t, 1, countEvents(events, EventUltimateFired))

	// +5 per tick reaches the window on the 12th swing tick
	events, _ = run(s, 2*frameMs, 23)
	hit, ok := findEvent(events, EventPlayerHitLanded)
	require.True(t, ok)
	assert.Equal(t, 60, hit.Damage, "ultimate ignores the damage stat")
	assert.True(t, hit.Ultimate)
	assert.Equal(t, 40, s.Enemy.Stats.Health)
	assert.Equal(t, 0, s.Combo.Power, "ultimate hits do not recharge the meter")
	assert.Equal(t, PlayerIdle, s.Player.State)
	assert.False(t, s.Player.Ultimate)
}

func TestUltimateShake(t *testing.T) {
	s := newFight(t)
	s.Combo.Charge(100)

	s.Step(frameMs, Intent{Kind: IntentUltimate})
	run(s, frameMs, 11)

	assert.Equal(t, 40, s.Enemy.Stats.Health)
	assert.Equal(t, 20, s.Shake)

	run(s, 12*frameMs, 3)
	assert.Equal(t, 17, s.Shake, "shake decays one per tick")
}

// enemySwingsAt starts an enemy swing at now and returns after the tick
// the swing reaches the hit window.
func enemySwingsAt(t *testing.T, s *Simulation, now int64, intents ...Intent) ([]Event, int64) {
	t.Helper()
	s.Policy = NewMeleePolicy(s.Balance)

	events := s.Step(now, intents...)
	require.Equal(t, EnemyAttack, s.Enemy.State)
	require.Equal(t, 1, countEvents(events, EventEnemySwing))

	more, last := run(s, now, 30)
	require.Equal(t, 60, s.Enemy.Frame())
	return append(events, more...), last
}

func TestEnemyHitsPlayer(t *testing.T) {
	s := newFight(t)
	s.Combo.RegisterHit(1900, false)
	s.Combo.RegisterHit(1950, false)

	events, now := enemySwingsAt(t, s, 2000)

	hit, ok := findEvent(events, EventEnemyHitLanded)
	require.True(t, ok)
	assert.Equal(t, 15, hit.Damage)
	assert.Equal(t, 85, s.Player.Stats.Health)
	assert.Equal(t, 0, s.Combo.Count, "getting hit breaks the combo")
	assert.Equal(t, 5, s.Shake)

	events, now = run(s, now, 30)
	assert.Zero(t, countEvents(events, EventEnemyHitLanded), "one hit per swing")
	assert.Equal(t, EnemyIdle, s.Enemy.State)

	// Cooldown stamp was taken at 2000; nothing until 3500 has passed
	events, _ = run(s, now, (3500-int(now))/frameMs)
	assert.Zero(t, countEvents(events, EventEnemySwing))
	events = s.Step(3501)
	assert.Equal(t, 1, countEvents(events, EventEnemySwing))
}

func TestEnemyAttackRespectsCooldownFromStart(t *testing.T) {
	s := newFight(t)
	s.Policy = NewMeleePolicy(s.Balance)

	s.Step(1500)
	assert.Equal(t, EnemyIdle, s.Enemy.State, "cooldown must be strictly exceeded")
	s.Step(1501)
	assert.Equal(t, EnemyAttack, s.Enemy.State)
}

func TestDefenseFloor(t *testing.T) {
	s := newFight(t)
	s.Player.Stats.Defense = 12

	events, _ := enemySwingsAt(t, s, 2000)
	hit, ok := findEvent(events, EventEnemyHitLanded)
	require.True(t, ok)
	assert.Equal(t, 5, hit.Damage)
	assert.Equal(t, 95, s.Player.Stats.Health)
}

func TestBlockVoidsHit(t *testing.T) {
	s := newFight(t)

	events, now := enemySwingsAt(t, s, 2000, Intent{Kind: IntentBlockStart})
	require.Equal(t, 1, countEvents(events, EventBlockRaised))
	assert.Zero(t, countEvents(events, EventEnemyHitLanded))

	events, _ = run(s, now, 30)
	assert.Zero(t, countEvents(events, EventEnemyHitLanded))
	assert.Equal(t, 100, s.Player.Stats.Health)
	assert.Equal(t, EnemyIdle, s.Enemy.State)
}

func TestPlayerDefeat(t *testing.T) {
	s := newFight(t)
	s.Player.Stats.Health = 10

	events, now := enemySwingsAt(t, s, 2000)
	require.Equal(t, 1, countEvents(events, EventPlayerDefeated))
	assert.Equal(t, PlayerDown, s.Player.State)
	assert.Equal(t, -5, s.Player.Stats.Health)

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Player.Health, "display health is clamped")

	events = s.Step(now+frameMs, Intent{Kind: IntentAttack}, Intent{Kind: IntentMoveStart}, Intent{Kind: IntentOpenShop})
	assert.Equal(t, PlayerDown, s.Player.State, "down is terminal")
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Zero(t, countEvents(events, EventPlayerPunch))

	// No further strikes on a downed player
	events, now = run(s, now+frameMs, 300)
	assert.Zero(t, countEvents(events, EventEnemyHitLanded))
	assert.Zero(t, countEvents(events, EventPlayerDefeated))
	assert.Equal(t, DownFrameCap, s.Player.Frame())

	events = s.Step(now+frameMs, Intent{Kind: IntentQuit})
	assert.Equal(t, 1, countEvents(events, EventQuit))
	assert.Equal(t, PhaseQuit, s.Phase)
}

func TestRewardPaidOnceWithComboAtDefeat(t *testing.T) {
	s := newFight(t)
	s.Enemy.Respawn(s.Balance.TierFor(true), s.Player.ReachX(s.Balance))
	s.Enemy.Stats.Health = 25

	for i := 0; i < 3; i++ {
		s.Combo.RegisterHit(0, false)
	}

	s.Step(frameMs, Intent{Kind: IntentAttack})
	events, now := run(s, frameMs, 19)

	defeated, ok := findEvent(events, EventEnemyDefeated)
	require.True(t, ok)
	assert.Equal(t, 58, defeated.Reward)
	assert.Equal(t, 4, defeated.Combo)
	assert.True(t, defeated.Boss)
	assert.Equal(t, 58, s.Score)
	assert.Equal(t, 50, s.Economy.Coins)
	assert.Equal(t, EnemyDown, s.Enemy.State)

	// Finish the swing and idle around: nothing more is paid
	events, _ = run(s, now, 200)
	assert.Zero(t, countEvents(events, EventEnemyDefeated))
	assert.Equal(t, 58, s.Score)
	assert.Equal(t, 50, s.Economy.Coins)
	assert.Equal(t, DownFrameCap, s.Enemy.Frame())
}

func TestDownedEnemyCannotBeHit(t *testing.T) {
	s := newFight(t)
	s.Enemy.Stats.Health = 0
	s.Step(frameMs)
	require.Equal(t, EnemyDown, s.Enemy.State)

	s.Step(2*frameMs, Intent{Kind: IntentAttack})
	events, _ := run(s, 2*frameMs, 40)
	assert.Zero(t, countEvents(events, EventPlayerHitLanded))
	assert.Equal(t, 0, s.Enemy.Stats.Health)
}

// killAndRespawn defeats the current enemy and runs until the next one
// spawns. Returns the spawn event.
func killAndRespawn(t *testing.T, s *Simulation, now int64) (Event, int64) {
	t.Helper()
	s.Enemy.Stats.Health = 0
	now += frameMs
	s.Step(now)
	require.Equal(t, EnemyDown, s.Enemy.State)
	now += frameMs
	s.Step(now, Intent{Kind: IntentMoveStart})
	require.Equal(t, PlayerRun, s.Player.State)

	for i := 0; i < 500; i++ {
		now += frameMs
		events := s.Step(now)
		if ev, ok := findEvent(events, EventEnemySpawned); ok {
			now += frameMs
			s.Step(now, Intent{Kind: IntentMoveStop})
			return ev, now
		}
	}
	t.Fatal("enemy never respawned")
	return Event{}, now
}

func TestBossEveryFifthRespawn(t *testing.T) {
	s := newFight(t)
	b := s.Balance

	var now int64
	for kill := 1; kill <= 10; kill++ {
		var spawned Event
		spawned, now = killAndRespawn(t, s, now)

		boss := kill%5 == 0
		assert.Equal(t, boss, spawned.Boss, "kill %d", kill)
		assert.Equal(t, boss, s.Enemy.Boss, "kill %d", kill)
		assert.Equal(t, kill, s.Encounter.EnemiesKilled)
		assert.Equal(t, EnemyIdle, s.Enemy.State)
		assert.Equal(t, b.TierFor(boss).MaxHealth, s.Enemy.Stats.Health, "kill %d", kill)
		assert.Equal(t, b.TierFor(boss).Damage, s.Enemy.Stats.Damage, "kill %d", kill)
		assert.Zero(t, s.Enemy.clocks[EnemyDown].Frame, "clocks reset on respawn")
	}

	// Only the boss spawned at kill 5 has been beaten; the one from kill 10 is fresh
	assert.Equal(t, 9*b.Reward+b.BossReward, s.Economy.Coins)
}

func TestRespawnPosition(t *testing.T) {
	s := newFight(t)
	_, _ = killAndRespawn(t, s, 0)

	assert.LessOrEqual(t, s.Enemy.X, s.Balance.EnemySpawnX)
	assert.Greater(t, s.Enemy.X, s.Balance.EnemySpawnX-2*s.Balance.ScrollSpeed)
	assert.False(t, s.PastDespawnBoundary())
}

func TestScrollStopsAtLivingEnemy(t *testing.T) {
	s := NewSimulation(DefaultBalance())
	s.Policy = nil
	s.Step(0, Intent{Kind: IntentStart}, Intent{Kind: IntentMoveStart})
	require.Equal(t, PlayerRun, s.Player.State)

	run(s, 0, 200)

	assert.Equal(t, 355, s.Enemy.X, "world stops once the enemy passes the approach line")
	assert.Equal(t, -345, s.ScrollX)
	assert.Equal(t, PlayerRun, s.Player.State)
	assert.True(t, InRange(s.Player.ReachX(s.Balance), s.Enemy.X, s.Balance.MeleeRange))
}

func TestMoveRefusedAtLivingEnemy(t *testing.T) {
	s := newFight(t)
	s.Enemy.X = s.Balance.ApproachStopX - s.Balance.ScrollSpeed
	require.True(t, InRange(s.Player.ReachX(s.Balance), s.Enemy.X, s.Balance.MeleeRange))

	s.Step(frameMs, Intent{Kind: IntentMoveStart})
	assert.Equal(t, PlayerIdle, s.Player.State, "no running in place")

	s.Step(2*frameMs, Intent{Kind: IntentAttack})
	assert.Equal(t, PlayerAttack, s.Player.State)

	// Once the enemy is down the world can move again
	s.Player.endSwing()
	s.Enemy.Stats.Health = 0
	s.Step(3 * frameMs)
	require.Equal(t, EnemyDown, s.Enemy.State)

	x := s.Enemy.X
	s.Step(4*frameMs, Intent{Kind: IntentMoveStart})
	assert.Equal(t, PlayerRun, s.Player.State)
	assert.Equal(t, x-s.Balance.ScrollSpeed, s.Enemy.X)
}

// TestSimultaneousLethalSwings lines both swings up on the same hit-window
// tick. The player phase runs first, so the enemy goes down before its own
// blow can land.
func TestSimultaneousLethalSwings(t *testing.T) {
	s := newFight(t)
	s.Player.Stats.Health = 1
	s.Enemy.Stats.Health = 1

	require.True(t, s.Player.StartAttack(false))
	require.True(t, s.Enemy.StartAttack(0))
	s.Player.clocks[PlayerAttack].Frame = HitWindowStart - s.Balance.PunchRate
	s.Enemy.clocks[EnemyAttack].Frame = HitWindowStart - s.Balance.EnemyPunchRate

	events := s.Step(frameMs)
	require.Equal(t, HitWindowStart, s.Player.Frame())

	assert.Equal(t, 1, countEvents(events, EventPlayerHitLanded))
	assert.Equal(t, 1, countEvents(events, EventEnemyDefeated))
	assert.Zero(t, countEvents(events, EventEnemyHitLanded))
	assert.Equal(t, EnemyDown, s.Enemy.State)

	more, _ := run(s, frameMs, 60)
	assert.Zero(t, countEvents(more, EventEnemyDefeated), "reward paid once")
	assert.Zero(t, countEvents(more, EventEnemyHitLanded))
	assert.Zero(t, countEvents(more, EventPlayerDefeated))
	assert.Equal(t, 1, s.Player.Stats.Health, "player takes no damage")
	assert.Equal(t, PlayerIdle, s.Player.State)
	assert.Equal(t, s.Balance.Reward, s.Economy.Coins)
}

func TestBackgroundWraps(t *testing.T) {
	s := newFight(t)
	s.Enemy.Stats.Health = 0
	s.Enemy.X = 100_000
	s.ScrollX = s.Balance.BackgroundWrap + 5
	s.Step(frameMs)

	s.Step(2*frameMs, Intent{Kind: IntentMoveStart})
	assert.Equal(t, 0, s.ScrollX)
}

func TestShop(t *testing.T) {
	s := newFight(t)

	// Purchases outside the shop are ignored
	s.Economy.Earn(50)
	s.Step(frameMs, Purchase(UpgradeDamage))
	assert.Equal(t, 50, s.Economy.Coins)

	events := s.Step(2*frameMs, Intent{Kind: IntentOpenShop})
	require.Equal(t, PhaseShop, s.Phase)
	assert.Equal(t, 1, countEvents(events, EventShopOpened))

	tick := s.Tick
	s.Economy.Coins = 40
	events = s.Step(3*frameMs, Purchase(UpgradeDamage))
	assert.Empty(t, events, "unaffordable purchase is silent")
	assert.Equal(t, 40, s.Economy.Coins)
	assert.Equal(t, tick, s.Tick, "combat is paused while shopping")

	s.Economy.Earn(10)
	events = s.Step(4*frameMs, Purchase(UpgradeDamage), Intent{Kind: IntentAttack}, Intent{Kind: IntentMoveStart})
	bought, ok := findEvent(events, EventShopPurchase)
	require.True(t, ok)
	assert.Equal(t, "damage", bought.Category)
	assert.Equal(t, 0, bought.Coins)
	assert.Equal(t, 30, s.Player.Stats.Damage)
	assert.Equal(t, 75, s.Economy.Cost(UpgradeDamage))
	assert.Equal(t, PlayerIdle, s.Player.State, "combat intents are dropped in the shop")

	snap := s.Snapshot()
	assert.True(t, snap.ShopOpen)
	assert.Equal(t, 75, snap.DamageCost)
	assert.Equal(t, map[string]int{"damage": 75, "health": 50, "defense": 50}, snap.Prices())

	events = s.Step(5*frameMs, Intent{Kind: IntentCloseShop})
	assert.Equal(t, 1, countEvents(events, EventShopClosed))
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, tick+1, s.Tick)
}

func TestShopRefusedMidSwing(t *testing.T) {
	s := newFight(t)

	s.Step(frameMs, Intent{Kind: IntentAttack})
	s.Step(2*frameMs, Intent{Kind: IntentOpenShop})
	assert.Equal(t, PhasePlaying, s.Phase)

	s.Player.endSwing()
	s.Enemy.StartAttack(2 * frameMs)
	s.Step(3*frameMs, Intent{Kind: IntentOpenShop})
	assert.Equal(t, PhasePlaying, s.Phase)
}

func TestQuitFromShop(t *testing.T) {
	s := newFight(t)
	s.Step(frameMs, Intent{Kind: IntentOpenShop})
	require.Equal(t, PhaseShop, s.Phase)

	events := s.Step(2*frameMs, Intent{Kind: IntentQuit}, Intent{Kind: IntentCloseShop})
	assert.Equal(t, PhaseQuit, s.Phase)
	assert.Equal(t, 1, countEvents(events, EventQuit))

	tick := s.Tick
	events = s.Step(3*frameMs, Intent{Kind: IntentStart}, Intent{Kind: IntentQuit})
	assert.Empty(t, events)
	assert.Equal(t, tick, s.Tick)
}

func TestSnapshotCapture(t *testing.T) {
	s := newFight(t)
	s.Combo.Charge(100)
	s.Step(frameMs, Intent{Kind: IntentAttack})

	snap := s.Snapshot()
	assert.Equal(t, PhasePlaying, snap.Phase)
	assert.Equal(t, PlayerAttack, snap.Player.State)
	assert.Equal(t, 3, snap.Player.Frame)
	assert.Equal(t, 100, snap.Player.MaxHealth)
	assert.Equal(t, EnemyIdle, snap.Enemy.State)
	assert.Equal(t, 100, snap.Enemy.Health)
	assert.True(t, snap.UltimateReady)
	assert.Equal(t, 100, snap.PowerMax)
	assert.Equal(t, s.Tick, snap.Tick)
	assert.Equal(t, int64(frameMs), snap.AtMs)
	assert.False(t, snap.ShopOpen)
}

func TestEventsCarryTickAndTime(t *testing.T) {
	s := newFight(t)
	events := s.Step(777, Intent{Kind: IntentAttack})

	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, int64(777), ev.AtMs)
		assert.LessOrEqual(t, ev.Tick, s.Tick)
	}
}

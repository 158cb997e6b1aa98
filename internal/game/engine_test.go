package game

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewEngine verifies engine creation with correct defaults
func TestNewEngine(t *testing.T) {
	tests := []struct {
		name     string
		tickRate int
		want     int
	}{
		{"standard 60 TPS", 60, 60},
		{"low 30 TPS", 30, 30},
		{"zero falls back to 60", 0, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEngineConfig()
			cfg.TickRate = tt.tickRate
			engine := NewEngine(cfg)
			require.NotNil(t, engine)
			assert.Equal(t, tt.want, engine.TickRate())

			snap := engine.GetSnapshot()
			assert.Equal(t, PhaseMenu, snap.Phase, "initial snapshot is published")
		})
	}
}

// TestEngineStartStop verifies engine can start and stop without panics
func TestEngineStartStop(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	engine.Start()
	engine.Start()
	require.True(t, engine.SubmitIntent(Intent{Kind: IntentStart}))

	assert.Eventually(t, func() bool {
		return engine.GetSnapshot().Phase == PhasePlaying
	}, time.Second, 10*time.Millisecond)

	engine.Stop()
	// Should not panic on double stop
	engine.Stop()
}

func TestEngineAppliesQueuedIntents(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	engine.SubmitIntent(Intent{Kind: IntentStart})
	engine.SubmitIntent(Intent{Kind: IntentAttack})
	events := engine.TickAt(16)

	require.Len(t, events, 2)
	assert.Equal(t, EventIntroStart, events[0].Type)
	assert.Equal(t, EventPlayerPunch, events[1].Type)

	snap := engine.GetSnapshot()
	assert.Equal(t, PhasePlaying, snap.Phase)
	assert.Equal(t, PlayerAttack, snap.Player.State)
	assert.Equal(t, uint64(1), snap.Tick)

	// Queue was drained
	assert.Empty(t, engine.TickAt(32))
}

func TestEngineSnapshotIsStable(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	engine.SubmitIntent(Intent{Kind: IntentStart})
	engine.TickAt(16)

	held := engine.GetSnapshot()
	seq, tick := held.Sequence, held.Tick

	// The pool has three slots; run well past a full lap
	for i := 2; i <= 6; i++ {
		engine.TickAt(int64(i * 16))
	}

	assert.Equal(t, seq, held.Sequence)
	assert.Equal(t, tick, held.Tick)
	assert.Equal(t, uint64(6), engine.GetSnapshot().Tick)
	assert.NotSame(t, held, engine.GetSnapshot())
}

func TestEngineSinkOrder(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	var mu sync.Mutex
	var ticks []uint64
	calls := 0 // sink worker only
	engine.AddSink(func(batch []Event) {
		calls++
		time.Sleep(time.Duration(calls%3) * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		ticks = append(ticks, batch[0].Tick)
	})

	engine.SubmitIntent(Intent{Kind: IntentStart})
	engine.TickAt(16)
	const n = 50
	for i := 0; i < n; i++ {
		kind := IntentBlockStart
		if i%2 == 1 {
			kind = IntentBlockStop
		}
		engine.SubmitIntent(Intent{Kind: kind})
		engine.TickAt(int64(32 + i*16))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ticks) >= n/2+1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.IsIncreasing(t, ticks, "batches arrive in tick order")
	assert.Zero(t, engine.DroppedSinkBatches())
}

func TestEngineIntentQueueBounded(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.IntentQueueSize = 2
	engine := NewEngine(cfg)

	assert.True(t, engine.SubmitIntent(Intent{Kind: IntentStart}))
	assert.True(t, engine.SubmitIntent(Intent{Kind: IntentAttack}))
	assert.False(t, engine.SubmitIntent(Intent{Kind: IntentBlockStart}))
	assert.Equal(t, uint64(1), engine.DroppedIntents())

	engine.TickAt(16)
	assert.True(t, engine.SubmitIntent(Intent{Kind: IntentBlockStart}))
}

func TestEngineSinksReceiveEvents(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	received := make(chan []Event, 4)
	engine.AddSink(func(events []Event) { received <- events })

	engine.TickAt(16)
	engine.SubmitIntent(Intent{Kind: IntentStart})
	engine.TickAt(32)

	select {
	case events := <-received:
		require.Len(t, events, 1)
		assert.Equal(t, EventIntroStart, events[0].Type)
	case <-time.After(time.Second):
		t.Fatal("sink was not called")
	}

	select {
	case events := <-received:
		t.Fatalf("sink called for an empty tick: %v", events)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngineTickObserver(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	var calls int
	var lastSeq uint64
	engine.SetTickObserver(func(d time.Duration, snap *Snapshot, events []Event) {
		calls++
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Greater(t, snap.Sequence, lastSeq)
		lastSeq = snap.Sequence
	})

	for i := 1; i <= 5; i++ {
		engine.TickAt(int64(i * 16))
	}
	assert.Equal(t, 5, calls)
}

func TestEngineQuitSignal(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	select {
	case <-engine.Quit():
		t.Fatal("quit closed before quitting")
	default:
	}

	engine.SubmitIntent(Intent{Kind: IntentQuit})
	engine.TickAt(16)

	select {
	case <-engine.Quit():
	case <-time.After(time.Second):
		t.Fatal("quit channel not closed")
	}

	// A second quit must not panic on the closed channel
	engine.SubmitIntent(Intent{Kind: IntentQuit})
	engine.TickAt(32)
}

func TestEngineEventLogRecent(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	require.NoError(t, engine.StartEventLog(""))
	defer engine.StopEventLog()

	engine.SubmitIntent(Intent{Kind: IntentStart})
	engine.SubmitIntent(Intent{Kind: IntentAttack})
	engine.TickAt(16)

	recent := engine.RecentEvents(10)
	require.Len(t, recent, 2)
	assert.Equal(t, EventIntroStart, recent[0].Event.Type)
	assert.Equal(t, EventPlayerPunch, recent[1].Event.Type)
	assert.Less(t, recent[0].Sequence, recent[1].Sequence)

	stats := engine.GetEventLogStats()
	assert.Equal(t, uint64(2), stats["total"])
}

func TestEngineBalance(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Balance.PlayerDamage = 40
	engine := NewEngine(cfg)

	assert.Equal(t, 40, engine.Balance().PlayerDamage)
	assert.Equal(t, 40, engine.GetSnapshot().Player.Damage)
}

// TestEngineConcurrentIntents hammers the intent queue while the loop runs
func TestEngineConcurrentIntents(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	engine := NewEngine(DefaultEngineConfig())
	engine.SubmitIntent(Intent{Kind: IntentStart})

	var accepted, events int64
	engine.AddSink(func(batch []Event) { atomic.AddInt64(&events, int64(len(batch))) })
	engine.Start()
	defer engine.Stop()

	kinds := []IntentKind{IntentAttack, IntentBlockStart, IntentBlockStop, IntentMoveStart, IntentMoveStop}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if engine.SubmitIntent(Intent{Kind: kinds[(worker+i)%len(kinds)]}) {
					atomic.AddInt64(&accepted, 1)
				}
				time.Sleep(time.Millisecond)
			}
		}(w)
	}
	wg.Wait()
	time.Sleep(50 * time.Millisecond)

	t.Logf("accepted=%d dropped=%d events=%d", accepted, engine.DroppedIntents(), atomic.LoadInt64(&events))
	assert.Equal(t, int64(8*200), accepted+int64(engine.DroppedIntents()))
	assert.Positive(t, atomic.LoadInt64(&events))
}

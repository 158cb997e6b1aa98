package game

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// unlimited lifts the rate limits so a test can fill the ring quickly
func unlimited(el *EventLog) {
	el.globalLimiter = rate.NewLimiter(rate.Inf, 0)
	for i := range el.typeLimiters {
		el.typeLimiters[i] = rate.NewLimiter(rate.Inf, 0)
	}
}

func TestEventLogRequiresStart(t *testing.T) {
	el := NewEventLog()
	assert.False(t, el.Emit(Event{Type: EventPlayerPunch}))
	assert.Empty(t, el.Recent(10))
}

func TestEventLogRecentOrder(t *testing.T) {
	el := NewEventLog()
	require.NoError(t, el.Start(""))
	defer el.Stop()

	for i := 0; i < 5; i++ {
		require.True(t, el.Emit(Event{Type: EventPlayerHitLanded, Damage: i}))
	}

	recent := el.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{recent[0].Event.Damage, recent[1].Event.Damage, recent[2].Event.Damage})
	assert.Equal(t, uint64(5), recent[2].Sequence)
	assert.Equal(t, EventVersion, recent[2].Version)

	assert.Len(t, el.Recent(100), 5)
}

func TestEventLogRingOverwrites(t *testing.T) {
	el := NewEventLog()
	unlimited(el)
	require.NoError(t, el.Start(""))
	defer el.Stop()

	total := EventBufferSize + 10
	for i := 0; i < total; i++ {
		el.Emit(Event{Type: EventEnemySpawned, Tick: uint64(i)})
	}

	recent := el.Recent(EventBufferSize * 2)
	require.Len(t, recent, EventBufferSize)
	assert.Equal(t, uint64(total-1), recent[len(recent)-1].Event.Tick)
	assert.Equal(t, uint64(10), recent[0].Event.Tick)
}

func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	el := NewEventLog()
	require.NoError(t, el.Start(path))

	el.Emit(Event{Type: EventIntroStart})
	el.Emit(Event{Type: EventShopPurchase, Category: "health", Coins: 25})
	el.Stop()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.Len(t, lines, 2)

	ev := lines[1]["event"].(map[string]any)
	assert.Equal(t, "shop_purchase", ev["type"])
	assert.Equal(t, "health", ev["category"])
	assert.Equal(t, float64(25), ev["coins"])
	assert.NotContains(t, ev, "damage", "zero payload fields are omitted")

	stats := el.GetStats()
	assert.Equal(t, uint64(0), stats["pending"])
	assert.Equal(t, false, stats["running"])
}

func TestEventLogRateLimitsPerType(t *testing.T) {
	el := NewEventLog()
	require.NoError(t, el.Start(""))
	defer el.Stop()

	accepted := 0
	for i := 0; i < MaxEventsPerType; i++ {
		if el.Emit(Event{Type: EventPlayerPunch}) {
			accepted++
		}
	}
	assert.Less(t, accepted, MaxEventsPerType)
	assert.Positive(t, el.GetDroppedCount())

	assert.True(t, el.Emit(Event{Type: EventQuit}), "other types keep their own budget")
}

func TestEventLogStartBadPath(t *testing.T) {
	el := NewEventLog()
	err := el.Start(filepath.Join(t.TempDir(), "missing", "events.jsonl"))
	assert.Error(t, err)
}

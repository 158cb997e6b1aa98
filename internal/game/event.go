package game

import (
	"encoding/json"
	"time"
)

// EventType classifies notable moments in a tick. Audio keys cues on these,
// the event log records them, and the websocket hub forwards them.
type EventType uint8

const (
	EventUnknown EventType = iota
	EventIntroStart
	EventPlayerPunch
	EventUltimateFired
	EventPlayerHitLanded
	EventEnemyHitLanded
	EventEnemyDefeated
	EventPlayerDefeated
	EventShopPurchase
	EventBlockRaised
	EventEnemySwing
	EventEnemySpawned
	EventShopOpened
	EventShopClosed
	EventQuit
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventIntroStart:
		return "intro_start"
	case EventPlayerPunch:
		return "player_punch"
	case EventUltimateFired:
		return "ultimate_fired"
	case EventPlayerHitLanded:
		return "player_hit_landed"
	case EventEnemyHitLanded:
		return "enemy_hit_landed"
	case EventEnemyDefeated:
		return "enemy_defeated"
	case EventPlayerDefeated:
		return "player_defeated"
	case EventShopPurchase:
		return "shop_purchase"
	case EventBlockRaised:
		return "block_raised"
	case EventEnemySwing:
		return "enemy_swing"
	case EventEnemySpawned:
		return "enemy_spawned"
	case EventShopOpened:
		return "shop_opened"
	case EventShopClosed:
		return "shop_closed"
	case EventQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// MarshalText encodes the type by name.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event is one notable moment produced by a Simulation step.
// Tick is the combat tick count when the event fired. Fields other than
// Type/Tick/AtMs are set only where they mean something.
type Event struct {
	Type     EventType `json:"type"`
	Tick     uint64    `json:"tick"`
	AtMs     int64     `json:"atMs"`
	Damage   int       `json:"damage,omitempty"`
	Health   int       `json:"health,omitempty"` // Defender health after a hit
	Combo    int       `json:"combo,omitempty"`
	Reward   int       `json:"reward,omitempty"`
	Coins    int       `json:"coins,omitempty"` // Wallet after a purchase
	Boss     bool      `json:"boss,omitempty"`
	Ultimate bool      `json:"ultimate,omitempty"`
	Category string    `json:"category,omitempty"`
}

// LogRecord is the event log's on-disk envelope.
type LogRecord struct {
	Version   uint8  `json:"version"`   // Schema version
	Sequence  uint64 `json:"sequence"`  // Monotonic sequence
	Timestamp int64  `json:"timestamp"` // Unix nano, wall clock
	Event     Event  `json:"event"`
}

// NewLogRecord wraps an event with the current wall-clock time
func NewLogRecord(ev Event) LogRecord {
	return LogRecord{
		Version:   EventVersion,
		Timestamp: time.Now().UnixNano(),
		Event:     ev,
	}
}

// EncodeRecord marshals a record to a JSON line (without the newline)
func EncodeRecord(rec LogRecord) []byte {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	return data
}

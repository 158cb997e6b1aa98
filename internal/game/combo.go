package game

// ComboPowerTracker tracks the player's hit streak and the ultimate meter.
// All timing uses the tick timestamp (ms since start) so replays stay exact.
type ComboPowerTracker struct {
	Count     int   `json:"count"`     // Consecutive hits in the current streak
	LastHitMs int64 `json:"lastHitMs"` // Timestamp of the latest hit
	Power     int   `json:"power"`     // Ultimate meter, 0..powerMax

	timeoutMs   int64
	powerPerHit int
	powerMax    int
}

// NewComboPowerTracker creates an empty tracker.
func NewComboPowerTracker(timeoutMs int64, powerPerHit, powerMax int) ComboPowerTracker {
	return ComboPowerTracker{
		timeoutMs:   timeoutMs,
		powerPerHit: powerPerHit,
		powerMax:    powerMax,
	}
}

// Decay drops an expired streak. Returns true if the combo was reset.
// Runs every playing tick, attack or not.
func (c *ComboPowerTracker) Decay(nowMs int64) bool {
	if c.Count > 0 && nowMs-c.LastHitMs > c.timeoutMs {
		c.Count = 0
		return true
	}
	return false
}

// RegisterHit extends the streak. Ultimate hits never charge the meter.
func (c *ComboPowerTracker) RegisterHit(nowMs int64, ultimate bool) {
	c.Count++
	c.LastHitMs = nowMs
	if !ultimate {
		c.Power += c.powerPerHit
		if c.Power > c.powerMax {
			c.Power = c.powerMax
		}
	}
}

// Break zeroes the streak (player got hit).
func (c *ComboPowerTracker) Break() {
	c.Count = 0
}

// UltimateReady reports whether the meter is full.
func (c *ComboPowerTracker) UltimateReady() bool {
	return c.Power >= c.powerMax
}

// ConsumePower empties a full meter. Returns false (and changes nothing)
// when the meter is not full.
func (c *ComboPowerTracker) ConsumePower() bool {
	if !c.UltimateReady() {
		return false
	}
	c.Power = 0
	return true
}

// Charge sets the meter directly, clamped to [0, max]. Used by scripted
// setups and tests.
func (c *ComboPowerTracker) Charge(power int) {
	switch {
	case power < 0:
		c.Power = 0
	case power > c.powerMax:
		c.Power = c.powerMax
	default:
		c.Power = power
	}
}

// PowerMax returns the meter capacity.
func (c *ComboPowerTracker) PowerMax() int {
	return c.powerMax
}

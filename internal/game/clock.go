package game

// AnimationClock is a per-state frame counter. It paces animations and
// doubles as the swing timer that gates hit windows.
//
// Which sprite frame to draw is the renderer's business; the core only
// cares whether the clock sits inside the hit window and whether a swing
// has finished.
type AnimationClock struct {
	Frame int `json:"frame"`
}

// Reset puts the clock back to frame 0.
func (c *AnimationClock) Reset() {
	c.Frame = 0
}

// Loop advances a looping state and wraps to 0 at the end of the cycle.
func (c *AnimationClock) Loop(rate int) {
	c.Frame += rate
	if c.Frame >= ClockCycle {
		c.Frame = 0
	}
}

// Swing advances an attack clock. It never wraps; the return value reports
// whether the swing is complete.
func (c *AnimationClock) Swing(rate int) bool {
	c.Frame += rate
	return c.Frame >= ClockCycle
}

// Settle advances a one-shot animation and holds it at limit.
func (c *AnimationClock) Settle(rate, limit int) {
	if c.Frame < limit {
		c.Frame += rate
	}
}

// InHitWindow reports whether the frame is within [HitWindowStart, HitWindowEnd].
func (c *AnimationClock) InHitWindow() bool {
	return c.Frame >= HitWindowStart && c.Frame <= HitWindowEnd
}

// Progress returns the cycle completion in [0, 1].
func (c *AnimationClock) Progress() float64 {
	p := float64(c.Frame) / ClockCycle
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// Package audio turns combat events into short synthesised cues.
// Nothing here can block or fail the simulation: a missing audio device
// leaves a silent player.
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"

	"boxer-arena/internal/game"
)

// Cue describes one synthesised sound effect.
type Cue struct {
	Freq     float64 // Start frequency in Hz
	EndFreq  float64 // Sweep target, 0 holds Freq
	Duration time.Duration
	Gain     float64 // Peak amplitude, 0..1
	Noise    float64 // Share of noise mixed in, for impacts
}

// DefaultCues maps each audible event to its cue. Events without an entry
// are silent.
var DefaultCues = map[game.EventType]Cue{
	game.EventIntroStart:      {Freq: 220, EndFreq: 880, Duration: 600 * time.Millisecond, Gain: 0.4},
	game.EventPlayerPunch:     {Freq: 900, EndFreq: 300, Duration: 90 * time.Millisecond, Gain: 0.25, Noise: 0.6},
	game.EventUltimateFired:   {Freq: 110, EndFreq: 1320, Duration: 450 * time.Millisecond, Gain: 0.5, Noise: 0.2},
	game.EventPlayerHitLanded: {Freq: 160, EndFreq: 60, Duration: 120 * time.Millisecond, Gain: 0.6, Noise: 0.5},
	game.EventEnemyHitLanded:  {Freq: 120, EndFreq: 50, Duration: 160 * time.Millisecond, Gain: 0.6, Noise: 0.7},
	game.EventEnemyDefeated:   {Freq: 660, EndFreq: 990, Duration: 300 * time.Millisecond, Gain: 0.4},
	game.EventPlayerDefeated:  {Freq: 440, EndFreq: 110, Duration: 900 * time.Millisecond, Gain: 0.5},
	game.EventShopPurchase:    {Freq: 1320, EndFreq: 1760, Duration: 150 * time.Millisecond, Gain: 0.3},
	game.EventBlockRaised:     {Freq: 300, Duration: 60 * time.Millisecond, Gain: 0.2, Noise: 0.3},
	game.EventEnemySwing:      {Freq: 500, EndFreq: 200, Duration: 110 * time.Millisecond, Gain: 0.2, Noise: 0.8},
	game.EventEnemySpawned:    {Freq: 330, EndFreq: 440, Duration: 200 * time.Millisecond, Gain: 0.3},
	game.EventShopOpened:      {Freq: 880, Duration: 80 * time.Millisecond, Gain: 0.25},
	game.EventShopClosed:      {Freq: 660, Duration: 80 * time.Millisecond, Gain: 0.25},
}

// Streamer returns a finite streamer that plays cue once.
func Streamer(sr beep.SampleRate, cue Cue) beep.Streamer {
	return beep.Take(sr.N(cue.Duration), newToneGenerator(sr, cue))
}

// toneGenerator renders a swept sine with a short attack and exponential
// decay, optionally roughened with noise.
type toneGenerator struct {
	sr    beep.SampleRate
	cue   Cue
	pos   int
	total int
	phase float64
	seed  uint32
}

func newToneGenerator(sr beep.SampleRate, cue Cue) *toneGenerator {
	total := sr.N(cue.Duration)
	if total < 1 {
		total = 1
	}
	return &toneGenerator{sr: sr, cue: cue, total: total, seed: 0x9e3779b9}
}

func (g *toneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		progress := float64(g.pos) / float64(g.total)

		freq := g.cue.Freq
		if g.cue.EndFreq > 0 {
			freq += (g.cue.EndFreq - g.cue.Freq) * progress
		}
		g.phase += 2 * math.Pi * freq / float64(g.sr)
		if g.phase > 2*math.Pi {
			g.phase -= 2 * math.Pi
		}

		sample := math.Sin(g.phase) * (1 - g.cue.Noise)
		if g.cue.Noise > 0 {
			sample += g.noise() * g.cue.Noise
		}

		// 5ms attack, then decay to silence by the end
		attack := math.Min(float64(g.pos)/float64(g.sr)/0.005, 1.0)
		decay := math.Exp(-4 * progress)
		sample *= attack * decay * g.cue.Gain

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *toneGenerator) Err() error {
	return nil
}

// noise is a xorshift generator in [-1, 1]; deterministic so cues sound
// the same every time.
func (g *toneGenerator) noise() float64 {
	g.seed ^= g.seed << 13
	g.seed ^= g.seed >> 17
	g.seed ^= g.seed << 5
	return float64(g.seed)/float64(math.MaxUint32)*2 - 1
}

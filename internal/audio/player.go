package audio

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"boxer-arena/internal/config"
	"boxer-arena/internal/game"
)

// MaxVoices caps overlapping cues; extra cues are skipped.
const MaxVoices = 8

// Player mixes cues for the speaker. It is itself a beep.Streamer, so it
// can also be drained offline.
type Player struct {
	mu     sync.Mutex
	sr     beep.SampleRate
	mixer  *beep.Mixer
	out    *effects.Gain
	cues   map[game.EventType]Cue
	device bool

	played  uint64 // atomic
	skipped uint64 // atomic
}

// NewPlayer builds a player from config. No device is opened until
// Initialize.
func NewPlayer(cfg config.AudioConfig) *Player {
	sr := beep.SampleRate(cfg.SampleRate)
	if sr <= 0 {
		sr = beep.SampleRate(44100)
	}

	mixer := &beep.Mixer{}
	return &Player{
		sr:    sr,
		mixer: mixer,
		out:   &effects.Gain{Streamer: mixer, Gain: cfg.Volume - 1},
		cues:  DefaultCues,
	}
}

// Initialize opens the audio device and starts playback.
func (p *Player) Initialize() error {
	p.mu.Lock()
	if p.device {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if err := speaker.Init(p.sr, p.sr.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p)

	p.mu.Lock()
	p.device = true
	p.mu.Unlock()

	log.Printf("🔊 Audio cues enabled at %d Hz", p.sr)
	return nil
}

// Close silences the device.
func (p *Player) Close() {
	p.mu.Lock()
	device := p.device
	p.device = false
	p.mixer.Clear()
	p.mu.Unlock()

	if device {
		speaker.Clear()
	}
}

// Play queues the cue for an event type. Returns false if the event is
// silent or too many cues are already sounding.
func (p *Player) Play(t game.EventType) bool {
	cue, ok := p.cues[t]
	if !ok {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mixer.Len() >= MaxVoices {
		atomic.AddUint64(&p.skipped, 1)
		return false
	}
	p.mixer.Add(Streamer(p.sr, cue))
	atomic.AddUint64(&p.played, 1)
	return true
}

// Sink adapts the player to the engine's event fan-out.
func (p *Player) Sink() game.EventSink {
	return func(events []game.Event) {
		for _, ev := range events {
			p.Play(ev.Type)
		}
	}
}

// Stream implements beep.Streamer: the mixed, volume-scaled output.
func (p *Player) Stream(samples [][2]float64) (n int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Stream(samples)
}

// Err implements beep.Streamer.
func (p *Player) Err() error {
	return nil
}

// Active returns how many cues are sounding.
func (p *Player) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mixer.Len()
}

// GetStats returns playback counters for monitoring
func (p *Player) GetStats() map[string]interface{} {
	p.mu.Lock()
	device := p.device
	p.mu.Unlock()

	return map[string]interface{}{
		"device":  device,
		"played":  atomic.LoadUint64(&p.played),
		"skipped": atomic.LoadUint64(&p.skipped),
	}
}

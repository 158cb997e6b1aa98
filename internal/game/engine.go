package game

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultIntentQueueSize bounds intents waiting for the next tick
const DefaultIntentQueueSize = 64

// SinkBufferSize bounds event batches waiting for a slow sink
const SinkBufferSize = 256

// EventSink receives event batches in tick order on a goroutine of its own.
// Sinks cannot reach back into the simulation.
type EventSink func(events []Event)

// sinkWorker feeds one sink from a buffered channel so batches stay ordered
type sinkWorker struct {
	sink    EventSink
	batches chan []Event
}

func (w *sinkWorker) run(stop <-chan struct{}) {
	for {
		select {
		case batch := <-w.batches:
			w.sink(batch)
		case <-stop:
			return
		}
	}
}

// TickObserver is told how long each tick took and what it produced.
// Called on the tick goroutine; keep it cheap.
type TickObserver func(d time.Duration, snap *Snapshot, events []Event)

// EngineConfig configures the fixed-rate driver
type EngineConfig struct {
	TickRate        int
	IntentQueueSize int
	Balance         Balance
}

// DefaultEngineConfig returns a 60 TPS engine over the default balance
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TickRate:        60,
		IntentQueueSize: DefaultIntentQueueSize,
		Balance:         DefaultBalance(),
	}
}

// Engine drives a Simulation at a fixed rate. It is the only writer: intents
// are queued from any goroutine and applied at the start of the next tick.
type Engine struct {
	mu  sync.Mutex
	sim *Simulation

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once

	intents        chan Intent
	droppedIntents uint64 // atomic
	droppedBatches uint64 // atomic - batches a full sink buffer refused

	epoch time.Time

	sinks    []*sinkWorker
	observer TickObserver

	quitChan chan struct{}
	quitOnce sync.Once

	// Snapshot system for lock-free render separation
	snapshotPool *SnapshotPool

	// Event log for replay and debugging
	eventLog *EventLog
}

// NewEngine creates an engine in the menu phase
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.IntentQueueSize <= 0 {
		cfg.IntentQueueSize = DefaultIntentQueueSize
	}

	e := &Engine{
		sim:          NewSimulation(cfg.Balance),
		tickRate:     cfg.TickRate,
		stopChan:     make(chan struct{}),
		intents:      make(chan Intent, cfg.IntentQueueSize),
		epoch:        time.Now(),
		quitChan:     make(chan struct{}),
		snapshotPool: NewSnapshotPool(),
		eventLog:     NewEventLog(),
	}
	e.publish()
	return e
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Combat engine started at %d TPS", e.tickRate)
}

// Stop stops the game loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	e.stopOnce.Do(func() { close(e.stopChan) })
	log.Println("🛑 Combat engine stopped")
}

// tick reads the clock once and steps the simulation
func (e *Engine) tick() {
	e.TickAt(time.Since(e.epoch).Milliseconds())
}

// TickAt runs one step at an explicit timestamp (ms since engine start).
// The loop calls it with the wall clock; tests call it directly.
func (e *Engine) TickAt(nowMs int64) []Event {
	start := time.Now()

	e.mu.Lock()
	events := e.sim.Step(nowMs, e.drainIntents()...)
	snap := e.publish()
	if len(events) > 0 {
		// Enqueued under mu so batches keep tick order per sink
		for _, w := range e.sinks {
			batch := make([]Event, len(events))
			copy(batch, events)
			select {
			case w.batches <- batch:
			default:
				atomic.AddUint64(&e.droppedBatches, 1)
			}
		}
	}
	observer := e.observer
	e.mu.Unlock()

	for _, ev := range events {
		e.eventLog.Emit(ev)
		if ev.Type == EventQuit {
			e.quitOnce.Do(func() { close(e.quitChan) })
		}
	}

	if observer != nil {
		observer(time.Since(start), snap, events)
	}
	return events
}

func (e *Engine) drainIntents() []Intent {
	var batch []Intent
	for {
		select {
		case in := <-e.intents:
			batch = append(batch, in)
		default:
			return batch
		}
	}
}

// publish writes the current state into the snapshot pool. Caller holds mu.
func (e *Engine) publish() *Snapshot {
	snap := e.snapshotPool.AcquireWrite()
	e.sim.CaptureInto(snap)
	e.snapshotPool.PublishWrite()
	return snap
}

// SubmitIntent queues an intent for the next tick. Returns false when the
// queue is full and the intent was dropped.
func (e *Engine) SubmitIntent(in Intent) bool {
	select {
	case e.intents <- in:
		return true
	default:
		atomic.AddUint64(&e.droppedIntents, 1)
		return false
	}
}

// DroppedIntents returns how many intents were refused by a full queue
func (e *Engine) DroppedIntents() uint64 {
	return atomic.LoadUint64(&e.droppedIntents)
}

// AddSink registers an event consumer (audio, websocket, metrics). Each sink
// gets its own worker until the engine stops.
func (e *Engine) AddSink(sink EventSink) {
	w := &sinkWorker{sink: sink, batches: make(chan []Event, SinkBufferSize)}
	go w.run(e.stopChan)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, w)
}

// DroppedSinkBatches returns how many event batches were refused because a
// sink fell behind
func (e *Engine) DroppedSinkBatches() uint64 {
	return atomic.LoadUint64(&e.droppedBatches)
}

// SetTickObserver installs the per-tick observer
func (e *Engine) SetTickObserver(fn TickObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = fn
}

// GetSnapshot returns a private copy of the latest snapshot. Later ticks
// never touch it, so callers may hold it as long as they like.
func (e *Engine) GetSnapshot() *Snapshot {
	snap := e.snapshotPool.Read()
	return &snap
}

// Balance returns the tunables the simulation was built with
func (e *Engine) Balance() Balance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Balance
}

// Quit is closed once the session reaches the quit phase
func (e *Engine) Quit() <-chan struct{} {
	return e.quitChan
}

// TickRate returns the configured ticks per second
func (e *Engine) TickRate() int {
	return e.tickRate
}

// StartEventLog initializes the event logging system
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog gracefully stops the event logging system
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// RecentEvents returns up to n of the newest logged events
func (e *Engine) RecentEvents(n int) []LogRecord {
	return e.eventLog.Recent(n)
}

// GetEventLogStats returns event log statistics for monitoring
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

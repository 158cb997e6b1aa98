package game

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize    = 1024                   // Circular buffer size
	MaxEventsPerSec    = 10000                  // Global rate limit
	MaxEventsPerType   = 500                    // Per-type rate limit per second
	BatchFlushSize     = 64                     // Events per batch write
	BatchFlushInterval = 100 * time.Millisecond // How often to flush
)

// EventLog is a bounded, rate-limited event recorder. Records go into a
// ring buffer that the API can read back and, when a path is set, are
// appended to a JSONL file by an async writer.
type EventLog struct {
	// Circular buffer
	bufMu     sync.Mutex
	buffer    [EventBufferSize]LogRecord
	writeHead uint64 // producer position
	flushHead uint64 // writer position

	// Rate limiting so a runaway loop cannot flood the disk
	globalLimiter *rate.Limiter
	typeLimiters  [EventQuit + 1]*rate.Limiter

	// Async writer
	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	// File output
	filePath string
	file     *os.File
	fileMu   sync.Mutex

	// Stats
	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

// NewEventLog creates a new bounded event log
func NewEventLog() *EventLog {
	el := &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
	for i := range el.typeLimiters {
		el.typeLimiters[i] = rate.NewLimiter(MaxEventsPerType, MaxEventsPerType/10)
	}
	return el
}

// Start begins the async writer goroutine. An empty path keeps records in
// memory only.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	el.filePath = filePath

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(1)
	go el.writerLoop()

	return nil
}

// Stop flushes pending records and closes the file
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit records an event. Returns false if rate limited or the log is not
// running.
func (el *EventLog) Emit(ev Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	if int(ev.Type) < len(el.typeLimiters) && !el.typeLimiters[ev.Type].Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	rec := NewLogRecord(ev)

	el.bufMu.Lock()
	el.writeHead++
	rec.Sequence = el.writeHead
	el.buffer[el.writeHead%EventBufferSize] = rec

	// Full buffer: oldest unflushed records are overwritten
	if el.writeHead-el.flushHead > EventBufferSize {
		dropped := el.writeHead - el.flushHead - EventBufferSize
		el.flushHead += dropped
		atomic.AddUint64(&el.droppedCount, dropped)
	}
	el.bufMu.Unlock()

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// Recent returns up to n of the newest records, oldest first.
func (el *EventLog) Recent(n int) []LogRecord {
	el.bufMu.Lock()
	defer el.bufMu.Unlock()

	if n > EventBufferSize {
		n = EventBufferSize
	}
	if uint64(n) > el.writeHead {
		n = int(el.writeHead)
	}

	out := make([]LogRecord, 0, n)
	for seq := el.writeHead - uint64(n) + 1; seq <= el.writeHead; seq++ {
		out = append(out, el.buffer[seq%EventBufferSize])
	}
	return out
}

// writerLoop batches and writes records to disk asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]LogRecord, 0, BatchFlushSize)

	for {
		select {
		case <-el.stopChan:
			// Final flush, drain everything
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// collectBatch reads unflushed records from the circular buffer
func (el *EventLog) collectBatch(batch []LogRecord) []LogRecord {
	el.bufMu.Lock()
	defer el.bufMu.Unlock()

	for el.flushHead < el.writeHead && len(batch) < BatchFlushSize {
		el.flushHead++
		batch = append(batch, el.buffer[el.flushHead%EventBufferSize])
	}
	return batch
}

// flushBatch writes records to disk (append-only, newline-delimited JSON)
func (el *EventLog) flushBatch(batch []LogRecord) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}

	for _, rec := range batch {
		data := EncodeRecord(rec)
		if data == nil {
			continue
		}
		el.file.Write(data)
		el.file.Write([]byte("\n"))
	}
}

// GetStats returns counters for monitoring
func (el *EventLog) GetStats() map[string]interface{} {
	el.bufMu.Lock()
	pending := el.writeHead - el.flushHead
	el.bufMu.Unlock()

	return map[string]interface{}{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
		"pending": pending,
		"running": el.running.Load(),
		"path":    el.filePath,
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&el.droppedCount)
}

// GetTotalCount returns the total number of events recorded
func (el *EventLog) GetTotalCount() uint64 {
	return atomic.LoadUint64(&el.totalCount)
}

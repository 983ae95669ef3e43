package logstore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

// DefaultQueueSize bounds the number of entries waiting to be written
const DefaultQueueSize = 256

// Recorder receives appender outcomes
type Recorder interface {
	LogAppendFailed()
	LogDropped()
}

type appendRequest struct {
	entry   types.SignalLogEntry
	flushed chan struct{}
}

// Appender serializes writes to a Store through a single goroutine.
// Append never blocks the caller; entries are dropped when the queue is full.
type Appender struct {
	logger   *zap.Logger
	store    Store
	recorder Recorder
	timeout  time.Duration

	queue chan appendRequest
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	subMu       sync.RWMutex
	subscribers map[string]func(types.SignalLogEntry)

	written  atomic.Int64
	dropped  atomic.Int64
	failures atomic.Int64
}

// NewAppender starts the writer goroutine. recorder may be nil.
func NewAppender(logger *zap.Logger, store Store, queueSize int, recorder Recorder) *Appender {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	a := &Appender{
		logger:      logger.Named("appender"),
		store:       store,
		recorder:    recorder,
		timeout:     defaultQueryTimeout,
		queue:       make(chan appendRequest, queueSize),
		done:        make(chan struct{}),
		subscribers: make(map[string]func(types.SignalLogEntry)),
	}
	go a.run()
	return a
}

// Append enqueues the entry. It reports false when the entry was dropped.
func (a *Appender) Append(entry types.SignalLogEntry) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.drop(entry, "appender closed")
		return false
	}

	select {
	case a.queue <- appendRequest{entry: entry}:
		return true
	default:
		a.drop(entry, "queue full")
		return false
	}
}

// Flush waits until every entry enqueued before the call has been written
func (a *Appender) Flush(ctx context.Context) error {
	flushed := make(chan struct{})

	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return nil
	}
	select {
	case a.queue <- appendRequest{flushed: flushed}:
		a.mu.RUnlock()
	case <-ctx.Done():
		a.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn for every stored entry and returns a function
// that removes it
func (a *Appender) Subscribe(fn func(types.SignalLogEntry)) func() {
	id := uuid.New().String()

	a.subMu.Lock()
	a.subscribers[id] = fn
	a.subMu.Unlock()

	return func() {
		a.subMu.Lock()
		delete(a.subscribers, id)
		a.subMu.Unlock()
	}
}

// Close stops accepting entries and waits for the queue to drain
func (a *Appender) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	a.logger.Info("appender stopped",
		zap.Int64("written", a.written.Load()),
		zap.Int64("dropped", a.dropped.Load()),
		zap.Int64("failures", a.failures.Load()),
	)
}

// Stats returns the written, dropped and failed entry counts
func (a *Appender) Stats() (written, dropped, failures int64) {
	return a.written.Load(), a.dropped.Load(), a.failures.Load()
}

// run is the single writer loop
func (a *Appender) run() {
	defer close(a.done)

	for req := range a.queue {
		if req.flushed != nil {
			close(req.flushed)
			continue
		}
		a.write(req.entry)
	}
}

func (a *Appender) write(entry types.SignalLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	stored, err := a.store.Append(ctx, entry)
	if err != nil {
		a.failures.Add(1)
		if a.recorder != nil {
			a.recorder.LogAppendFailed()
		}
		a.logger.Warn("failed to append signal log",
			zap.String("asset", entry.Asset),
			zap.String("signal", entry.SignalName),
			zap.Error(err),
		)
		return
	}
	a.written.Add(1)

	a.subMu.RLock()
	subs := make([]func(types.SignalLogEntry), 0, len(a.subscribers))
	for _, fn := range a.subscribers {
		subs = append(subs, fn)
	}
	a.subMu.RUnlock()

	for _, fn := range subs {
		fn(stored)
	}
}

func (a *Appender) drop(entry types.SignalLogEntry, reason string) {
	a.dropped.Add(1)
	if a.recorder != nil {
		a.recorder.LogDropped()
	}
	a.logger.Warn("dropped signal log entry",
		zap.String("asset", entry.Asset),
		zap.String("reason", reason),
	)
}

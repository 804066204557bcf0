package persist

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// BatchWriter stores journal batches. *JournalRepo implements it.
type BatchWriter interface {
	WriteBatch(ctx context.Context, entries []JournalEntry) error
}

// JournalWriter moves database writes off the game loop. Submit never
// blocks; Run drains batches in its own goroutine.
type JournalWriter struct {
	repo    BatchWriter
	queue   chan []JournalEntry
	timeout time.Duration
	dropped atomic.Int64
	written atomic.Int64
	log     *zap.Logger
}

func NewJournalWriter(repo BatchWriter, queueSize int, log *zap.Logger) *JournalWriter {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &JournalWriter{
		repo:    repo,
		queue:   make(chan []JournalEntry, queueSize),
		timeout: 5 * time.Second,
		log:     log,
	}
}

// Submit hands a batch to the writer goroutine. A full queue drops the
// batch and reports false.
func (w *JournalWriter) Submit(batch []JournalEntry) bool {
	if len(batch) == 0 {
		return true
	}
	select {
	case w.queue <- batch:
		return true
	default:
		w.dropped.Add(int64(len(batch)))
		w.log.Warn("journal queue full, dropping batch", zap.Int("entries", len(batch)))
		return false
	}
}

// Run writes batches until ctx is cancelled, then drains what is queued.
func (w *JournalWriter) Run(ctx context.Context) {
	for {
		select {
		case batch := <-w.queue:
			w.write(batch)
		case <-ctx.Done():
			for {
				select {
				case batch := <-w.queue:
					w.write(batch)
				default:
					return
				}
			}
		}
	}
}

func (w *JournalWriter) write(batch []JournalEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.repo.WriteBatch(ctx, batch); err != nil {
		w.dropped.Add(int64(len(batch)))
		w.log.Error("journal write failed", zap.Int("entries", len(batch)), zap.Error(err))
		return
	}
	w.written.Add(int64(len(batch)))
}

func (w *JournalWriter) Written() int64 { return w.written.Load() }
func (w *JournalWriter) Dropped() int64 { return w.dropped.Load() }

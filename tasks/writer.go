package tasks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"prism-todo/domain"
)

// WriterConfig tunes the background snapshot writer.
type WriterConfig struct {
	// Buffer is the number of snapshots that may wait for the writer before
	// mutations start to block.
	Buffer int
	// WriteTimeout bounds a single snapshot write.
	WriteTimeout time.Duration
}

// DefaultWriterConfig returns the settings used when none are supplied.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{Buffer: 64, WriteTimeout: 10 * time.Second}
}

type jobKind int

const (
	jobTasks jobKind = iota
	jobCategories
	jobFlush
)

type writeJob struct {
	kind       jobKind
	tasks      []domain.Task
	categories []domain.Category
	done       chan struct{}
}

// WriterStats reports the writer's progress.
type WriterStats struct {
	Queued  int    `json:"queued"`
	Written uint64 `json:"written"`
}

// writer persists snapshots on a single goroutine, in the order they were
// enqueued. Every snapshot is a full copy, so the writer shares no state with
// the manager.
type writer struct {
	store  Store
	logger *log.Logger
	cfg    WriterConfig
	jobs   chan writeJob
	done   chan struct{}

	mu      sync.Mutex
	closed  bool
	written atomic.Uint64
}

func newWriter(store Store, logger *log.Logger, cfg WriterConfig) *writer {
	def := DefaultWriterConfig()
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	w := &writer{
		store:  store,
		logger: logger,
		cfg:    cfg,
		jobs:   make(chan writeJob, cfg.Buffer),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) run() {
	defer close(w.done)
	for job := range w.jobs {
		w.handle(job)
	}
}

func (w *writer) handle(job writeJob) {
	if job.kind == jobFlush {
		close(job.done)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.WriteTimeout)
	defer cancel()
	switch job.kind {
	case jobTasks:
		w.store.WriteTasks(ctx, job.tasks)
	case jobCategories:
		w.store.WriteCategories(ctx, job.categories)
	}
	w.written.Add(1)
}

// enqueue hands a snapshot to the writer without waiting for the write. When
// the buffer is full it blocks until the writer catches up. After close the
// snapshot is written inline.
func (w *writer) enqueue(job writeJob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		<-w.done
		w.handle(job)
		return
	}
	select {
	case w.jobs <- job:
		return
	default:
	}
	w.logger.WithField("buffer", w.cfg.Buffer).Warn("snapshot write queue saturated; waiting for writer")
	w.jobs <- job
}

// flush waits until every snapshot enqueued before the call has been written.
func (w *writer) flush(ctx context.Context) error {
	marker := writeJob{kind: jobFlush, done: make(chan struct{})}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	select {
	case w.jobs <- marker:
	case <-ctx.Done():
		w.mu.Unlock()
		return ctx.Err()
	}
	w.mu.Unlock()

	select {
	case <-marker.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting queued snapshots and waits for the queue to drain.
func (w *writer) close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writer) stats() WriterStats {
	return WriterStats{Queued: len(w.jobs), Written: w.written.Load()}
}

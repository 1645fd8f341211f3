package state

import (
	"context"
	"sync"
	"time"

	"foxden/internal/storage"
	"foxden/pkg/logger"
)

// writeTimeout bounds a single backend write. The UI never waits on
// these, but a wedged backend must not pin the writer forever.
const writeTimeout = 10 * time.Second

// snapshotWriter serializes snapshot writes: one in-flight write at a
// time, and a newer pending snapshot replaces an older unwritten one.
// This is what keeps a slow early write from overwriting the snapshot
// of a later mutation.
type snapshotWriter struct {
	backend storage.Backend
	key     string
	log     *logger.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending []byte
	writing bool
	closed  bool
	done    chan struct{}
}

func newSnapshotWriter(backend storage.Backend, key string, log *logger.Logger) *snapshotWriter {
	w := &snapshotWriter{
		backend: backend,
		key:     key,
		log:     log,
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Enqueue schedules a snapshot write, replacing any not-yet-written
// snapshot. nil snapshots (failed encodes) are dropped.
func (w *snapshotWriter) Enqueue(snap []byte) {
	if snap == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending = snap
	w.cond.Signal()
}

// Flush blocks until the pending snapshot (if any) has been written,
// or ctx expires.
func (w *snapshotWriter) Flush(ctx context.Context) error {
	settled := make(chan struct{})
	go func() {
		w.mu.Lock()
		for (w.pending != nil || w.writing) && !w.closed {
			w.cond.Wait()
		}
		w.mu.Unlock()
		close(settled)
	}()
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the pending write and stops the writer goroutine.
func (w *snapshotWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	<-w.done
}

func (w *snapshotWriter) run() {
	defer close(w.done)
	w.mu.Lock()
	for {
		for w.pending == nil && !w.closed {
			w.cond.Wait()
		}
		if w.pending == nil && w.closed {
			w.mu.Unlock()
			return
		}
		snap := w.pending
		w.pending = nil
		w.writing = true
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := w.backend.Set(ctx, w.key, snap); err != nil {
			w.log.Errorf("state: persisting snapshot to %s: %v", w.backend.Name(), err)
		}
		cancel()

		w.mu.Lock()
		w.writing = false
		w.cond.Broadcast()
	}
}

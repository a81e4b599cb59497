package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	appendTimeout  = 5 * time.Second
)

// DepthObserver receives the queue length of a worker after every change.
type DepthObserver interface {
	ObserveAuditDepth(workerID int, depth int)
}

// Dispatcher persists audit entries off the request path. Entries are routed
// by entity id, so the entries of one entity are written in order.
type Dispatcher struct {
	workers []chan domain.AuditEntry
	repo    ports.AuditRepository
	depth   DepthObserver
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ ports.AuditRecorder = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. depth may be nil.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, depth DepthObserver, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEntry, numWorkers),
		repo:    repo,
		depth:   depth,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEntry, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. ctx bounds the writes; workers exit
// once Close has drained their queue.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues entry without blocking. A full queue drops the entry.
func (d *Dispatcher) Record(entry domain.AuditEntry) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn().Str("entity_id", entry.EntityID).Msg("audit entry after close dropped")
		return
	}

	idx := d.shardIndex(entry.EntityID)
	select {
	case d.workers[idx] <- entry:
		d.observe(idx)
	default:
		d.log.Warn().
			Str("entity_id", entry.EntityID).
			Str("kind", string(entry.Kind)).
			Int("worker_id", idx).
			Msg("audit queue full, entry dropped")
	}
}

// Close stops accepting entries and waits for the workers to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps an entity id deterministically to a worker index.
func (d *Dispatcher) shardIndex(entityID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) observe(worker int) {
	if d.depth != nil {
		d.depth.ObserveAuditDepth(worker, len(d.workers[worker]))
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEntry) {
	defer d.wg.Done()
	for entry := range ch {
		d.observe(id)
		writeCtx, cancel := context.WithTimeout(ctx, appendTimeout)
		err := d.repo.Append(writeCtx, entry)
		cancel()
		if err != nil {
			d.log.Error().Err(err).
				Str("entity_id", entry.EntityID).
				Str("kind", string(entry.Kind)).
				Str("action", string(entry.Action)).
				Int("worker_id", id).
				Msg("audit write failed")
		}
	}
}

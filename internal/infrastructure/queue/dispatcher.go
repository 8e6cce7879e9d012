package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ourpoint/fisher-accounts/internal/api/metrics"
	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	insertTimeout  = 5 * time.Second
)

// Dispatcher writes account audit events off the request path. Events are
// sharded by account id across a fixed set of workers, so the trail of any
// single account is persisted in publish order.
type Dispatcher struct {
	workers []chan domain.AccountEvent
	repo    ports.AccountEventRepository
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ ports.AccountEventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AccountEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AccountEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AccountEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel until
// Stop closes it; ctx only bounds the individual inserts.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish never blocks. When the worker's buffer is full, or the dispatcher
// is stopped, the event is dropped and counted.
func (d *Dispatcher) Publish(event domain.AccountEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher stopped")
		return
	}

	idx := d.shardIndex(event.AccountID)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(event, "worker queue full")
	}
}

// Stop closes every worker channel and waits for the pending events to be
// written. It is safe to call more than once.
func (d *Dispatcher) Stop() {
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

// shardIndex maps an account id deterministically to a worker index.
func (d *Dispatcher) shardIndex(id domain.AccountID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id.String()))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) drop(event domain.AccountEvent, reason string) {
	metrics.AuditEventsTotal.WithLabelValues(string(event.Type), metrics.ResultDropped).Inc()
	d.log.Warn().
		Stringer("account_id", event.AccountID).
		Str("event_type", string(event.Type)).
		Str("reason", reason).
		Msg("audit event dropped")
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AccountEvent) {
	defer d.wg.Done()
	workerID := strconv.Itoa(id)

	for event := range ch {
		metrics.AuditQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))

		// The request that produced the event may be long gone; shutdown
		// must still flush what was queued.
		insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
		err := d.repo.InsertEvent(insertCtx, event)
		cancel()

		if err != nil {
			metrics.AuditEventsTotal.WithLabelValues(string(event.Type), metrics.ResultFailed).Inc()
			d.log.Error().Err(err).
				Stringer("account_id", event.AccountID).
				Str("event_type", string(event.Type)).
				Int("worker_id", id).
				Msg("audit event persistence failed")
			continue
		}
		metrics.AuditEventsTotal.WithLabelValues(string(event.Type), metrics.ResultPersisted).Inc()
	}
}

package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/vaultguard/credential-vault/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Scanner runs a full alert evaluation of one user's vault.
type Scanner interface {
	ScanVault(ctx context.Context, userID string) error
}

// Dispatcher routes vault scan jobs to a fixed set of workers using consistent
// hashing on the user id, so scans of one vault never run concurrently.
type Dispatcher struct {
	workers []chan ports.ScanJob
	scanner Scanner
	log     zerolog.Logger
	depth   func(worker string, n int)
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, scanner Scanner, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ScanJob, numWorkers),
		scanner: scanner,
		log:     log,
		depth:   func(string, int) {},
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ScanJob, channelBuffer)
	}
	return d
}

// OnDepth registers fn to observe each worker's queue length after it changes.
func (d *Dispatcher) OnDepth(fn func(worker string, n int)) *Dispatcher {
	d.depth = fn
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands job to the worker that owns its user. It never blocks and
// reports false when that worker's queue is full.
func (d *Dispatcher) Enqueue(job ports.ScanJob) bool {
	idx := d.shardIndex(job.UserID)
	select {
	case d.workers[idx] <- job:
		d.depth(strconv.Itoa(idx), len(d.workers[idx]))
		return true
	default:
		return false
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ScanJob) {
	worker := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			d.depth(worker, len(ch))
			if err := d.scanner.ScanVault(ctx, job.UserID); err != nil {
				d.log.Error().Err(err).
					Str("user_id", job.UserID).
					Int("worker_id", id).
					Msg("vault scan failed")
			}
		}
	}
}

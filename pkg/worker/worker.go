package worker

import (
	"sync/atomic"

	"github.com/weimeittx/pow-miner/internal/pow"
	"github.com/weimeittx/pow-miner/pkg/types"
)

// DefaultBatchSize is the number of attempts between shared-counter flushes
// and stop-flag checks.
const DefaultBatchSize = 100_000

// Worker scans one contiguous nonce range for a digest that satisfies the
// difficulty predicate. All shared state is atomic; workers never block each
// other.
type Worker struct {
	difficulty int
	rng        types.NonceRange
	batchSize  uint64

	stop    *atomic.Bool
	hashes  *atomic.Uint64
	results chan<- types.Result

	hasher *pow.Hasher
}

// New creates a worker for the given range. The stop flag, hash counter and
// result channel are shared with all sibling workers.
func New(prefix string, difficulty int, rng types.NonceRange, batchSize int, stop *atomic.Bool, hashes *atomic.Uint64, results chan<- types.Result) *Worker {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Worker{
		difficulty: difficulty,
		rng:        rng,
		batchSize:  uint64(batchSize),
		stop:       stop,
		hashes:     hashes,
		results:    results,
		hasher:     pow.NewHasher(prefix),
	}
}

// Run scans the assigned range in ascending order until a match is found, the
// range is exhausted, or another worker sets the stop flag. The local attempt
// count is flushed into the shared counter every batchSize attempts and once
// more on exit, so the shared total is exact once all workers have returned.
// The stop flag is only polled at batch boundaries; termination after a stop
// is therefore bounded by one batch of iterations.
func (w *Worker) Run() {
	var local uint64
	defer func() {
		if local > 0 {
			w.hashes.Add(local)
		}
	}()

	nonce := w.rng.Start
	for {
		matched := w.hasher.Match(nonce, w.difficulty)
		local++

		if matched {
			w.claim(types.Result{Nonce: nonce, HashHex: w.hasher.HexDigest()})
			return
		}

		if local == w.batchSize {
			w.hashes.Add(local)
			local = 0
			if w.stop.Load() {
				return
			}
		}

		// nonce == End is the final iteration; incrementing past
		// math.MaxUint64 would wrap.
		if nonce == w.rng.End {
			return
		}
		nonce++
	}
}

// claim makes the monotonic false->true stop transition and delivers the
// result. The send is best-effort: if another worker already delivered, the
// losing result is silently dropped.
func (w *Worker) claim(res types.Result) {
	w.stop.CompareAndSwap(false, true)
	select {
	case w.results <- res:
	default:
	}
}

package miner

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weimeittx/pow-miner/internal/config"
	"github.com/weimeittx/pow-miner/internal/logger"
	"github.com/weimeittx/pow-miner/pkg/types"
	"github.com/weimeittx/pow-miner/pkg/worker"
)

// Miner coordinates the partitioner, the search workers and the progress
// reporter for a single proof-of-work search.
type Miner struct {
	config *config.Config
	logger *logger.Logger

	// Shared search state. The stop flag only ever transitions false->true;
	// the hash counter is only ever added to. Both use atomic operations, so
	// relaxed cross-worker visibility is sufficient: workers re-check the
	// flag every batch.
	stop   atomic.Bool
	hashes atomic.Uint64

	wg sync.WaitGroup
}

// NewMiner creates a new miner instance
func NewMiner(cfg *config.Config, log *logger.Logger) *Miner {
	return &Miner{
		config: cfg,
		logger: log,
	}
}

// SplitRange partitions the full 64-bit nonce space into n contiguous,
// pairwise-disjoint inclusive ranges whose union is exactly
// [0, math.MaxUint64]. The last range absorbs the integer-division
// remainder. n must be >= 1 (callers validate).
func SplitRange(n int) []types.NonceRange {
	chunk := math.MaxUint64 / uint64(n)
	ranges := make([]types.NonceRange, n)
	for i := range ranges {
		start := uint64(i) * chunk
		end := start + chunk - 1
		if i == n-1 {
			end = math.MaxUint64
		}
		ranges[i] = types.NonceRange{Start: start, End: end}
	}
	return ranges
}

// Search runs the fan-out/fan-in search and blocks until the first worker
// delivers a match or every worker exhausts its range. The returned Outcome
// carries the exact total attempt count: it is read only after all workers
// have been joined and flushed their local counters.
func (m *Miner) Search() types.Outcome {
	start := time.Now()

	results := make(chan types.Result, 1)
	ranges := SplitRange(m.config.Workers)

	for i, rng := range ranges {
		m.logger.Debugf("worker %d assigned nonce range [%d, %d]", i, rng.Start, rng.End)
		w := worker.New(m.config.Prefix, m.config.Difficulty, rng, m.config.BatchSize, &m.stop, &m.hashes, results)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Run()
		}()
	}

	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		m.report()
	}()

	// Close the result channel once every worker has returned, so an
	// exhausted space is distinguishable from a match: a closed, empty
	// channel means no worker ever found one.
	go func() {
		m.wg.Wait()
		close(results)
	}()

	res, ok := <-results

	// Idempotent on a match (the winner already set it); on exhaustion or
	// external stop this is what lets the reporter terminate.
	m.stop.Store(true)
	m.wg.Wait()
	<-reporterDone

	outcome := types.Outcome{
		Attempts: m.hashes.Load(),
		Duration: time.Since(start),
	}
	if ok {
		outcome.Found = true
		outcome.Nonce = res.Nonce
		outcome.HashHex = res.HashHex
	}
	return outcome
}

// Stop sets the shared stop flag from outside the search. Workers drain
// within one batch and Search returns; the Outcome reports Found only if a
// match had already been delivered.
func (m *Miner) Stop() {
	m.stop.Store(true)
}

// Attempts returns the hash attempts flushed to the shared counter so far.
// The value is approximate while workers are running (they flush in batches)
// and exact after Search returns. It never decreases.
func (m *Miner) Attempts() uint64 {
	return m.hashes.Load()
}

// report samples the shared hash counter once per interval and logs the
// instantaneous rate. The stop flag is checked before each sleep, so a search
// shorter than one interval emits no progress lines. It never mutates shared
// state.
func (m *Miner) report() {
	lastCount := uint64(0)
	lastTime := time.Now()

	for !m.stop.Load() {
		time.Sleep(m.config.ReportInterval)

		count := m.hashes.Load()
		now := time.Now()
		elapsed := now.Sub(lastTime).Seconds()

		rate := 0.0
		if elapsed > 0 {
			rate = float64(count-lastCount) / elapsed
		}
		m.logger.Printf("Rate: %.2f hashes/sec, total attempts: %d", rate, count)

		lastCount = count
		lastTime = now
	}
}

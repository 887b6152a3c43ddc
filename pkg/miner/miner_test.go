package miner

import (
	"io"
	"math"
	"testing"
	"time"

	"github.com/weimeittx/pow-miner/internal/config"
	"github.com/weimeittx/pow-miner/internal/logger"
	"github.com/weimeittx/pow-miner/internal/pow"
	"github.com/weimeittx/pow-miner/pkg/types"
)

func testConfig(prefix string, difficulty, workers int) *config.Config {
	cfg := config.NewConfig()
	cfg.Prefix = prefix
	cfg.Difficulty = difficulty
	cfg.Workers = workers
	cfg.BatchSize = 1000
	cfg.ReportInterval = 10 * time.Millisecond
	return cfg
}

func testMiner(cfg *config.Config) *Miner {
	return NewMiner(cfg, logger.NewWriter(io.Discard))
}

func searchWithTimeout(t *testing.T, m *Miner) types.Outcome {
	t.Helper()
	outcomes := make(chan types.Outcome, 1)
	go func() {
		outcomes <- m.Search()
	}()
	select {
	case o := <-outcomes:
		return o
	case <-time.After(60 * time.Second):
		t.Fatal("search did not terminate")
		return types.Outcome{}
	}
}

func TestSplitRange(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 8, 64} {
		ranges := SplitRange(n)
		if len(ranges) != n {
			t.Fatalf("SplitRange(%d) returned %d ranges", n, len(ranges))
		}
		if ranges[0].Start != 0 {
			t.Errorf("n=%d: first range starts at %d, want 0", n, ranges[0].Start)
		}
		if last := ranges[n-1].End; last != math.MaxUint64 {
			t.Errorf("n=%d: last range ends at %d, want MaxUint64", n, last)
		}
		for i, r := range ranges {
			if r.Start > r.End {
				t.Errorf("n=%d: range %d inverted: [%d, %d]", n, i, r.Start, r.End)
			}
			// Adjacency proves no gaps and no overlaps: ranges are
			// generated in ascending order.
			if i > 0 && r.Start != ranges[i-1].End+1 {
				t.Errorf("n=%d: range %d starts at %d, want %d", n, i, r.Start, ranges[i-1].End+1)
			}
		}
	}
}

func TestSplitRangeSingleWorkerCoversAll(t *testing.T) {
	ranges := SplitRange(1)
	if ranges[0].Start != 0 || ranges[0].End != math.MaxUint64 {
		t.Errorf("SplitRange(1) = %+v, want the full space", ranges[0])
	}
}

func TestSearchZeroDifficulty(t *testing.T) {
	m := testMiner(testConfig("abc", 0, 4))
	outcome := searchWithTimeout(t, m)

	if !outcome.Found {
		t.Fatal("difficulty 0 must always find a match")
	}
	if got, want := outcome.HashHex, pow.SumHex("abc", outcome.Nonce); got != want {
		t.Errorf("HashHex = %s, want %s", got, want)
	}
	// Every worker matches its very first candidate, so the winner must be
	// one of the range starts.
	starts := map[uint64]bool{}
	for _, r := range SplitRange(4) {
		starts[r.Start] = true
	}
	if !starts[outcome.Nonce] {
		t.Errorf("Nonce = %d, want one of the partition starts", outcome.Nonce)
	}
	if outcome.Attempts == 0 {
		t.Error("Attempts must reflect at least one hash")
	}
}

func TestSearchFindsKnownNonce(t *testing.T) {
	m := testMiner(testConfig("test", 2, 1))
	outcome := searchWithTimeout(t, m)

	if !outcome.Found {
		t.Fatal("no match found")
	}
	if outcome.Nonce != 304 {
		t.Errorf("Nonce = %d, want 304 (smallest match for prefix \"test\")", outcome.Nonce)
	}
	if outcome.HashHex != "009fa371cd0b736ab80e8d55c5741944dd0e740bbd92c97808f740a03722576b" {
		t.Errorf("unexpected HashHex %s", outcome.HashHex)
	}
	// Single worker scans 0..304 inclusive with nothing skipped, and the
	// final counter flush must be exact.
	if outcome.Attempts != 305 {
		t.Errorf("Attempts = %d, want exactly 305", outcome.Attempts)
	}
}

func TestSearchSingleWorkerDeterministic(t *testing.T) {
	first := searchWithTimeout(t, testMiner(testConfig("test", 2, 1)))
	second := searchWithTimeout(t, testMiner(testConfig("test", 2, 1)))

	if first.Nonce != second.Nonce || first.HashHex != second.HashHex || first.Attempts != second.Attempts {
		t.Errorf("single-worker searches diverged: %+v vs %+v", first, second)
	}
}

func TestSearchMultiWorkerCorrectness(t *testing.T) {
	m := testMiner(testConfig("test", 2, 4))
	outcome := searchWithTimeout(t, m)

	if !outcome.Found {
		t.Fatal("no match found")
	}
	if got, want := outcome.HashHex, pow.SumHex("test", outcome.Nonce); got != want {
		t.Errorf("HashHex = %s does not match recomputed digest %s", got, want)
	}
	if !pow.MeetsDifficulty(outcome.HashHex, 2) {
		t.Errorf("HashHex = %s does not satisfy difficulty 2", outcome.HashHex)
	}
}

func TestStopUnblocksSearch(t *testing.T) {
	cfg := testConfig("test", 64, 2)
	m := testMiner(cfg)

	outcomes := make(chan types.Outcome, 1)
	go func() {
		outcomes <- m.Search()
	}()

	time.Sleep(50 * time.Millisecond)
	m.Stop()

	select {
	case outcome := <-outcomes:
		if outcome.Found {
			t.Errorf("unexpected match at impossible difficulty: %+v", outcome)
		}
		if outcome.Attempts == 0 {
			t.Error("Attempts must include work done before the stop")
		}
	case <-time.After(30 * time.Second):
		t.Fatal("Search did not return after Stop")
	}
}

func TestAttemptsMonotonic(t *testing.T) {
	m := testMiner(testConfig("test", 64, 2))

	outcomes := make(chan types.Outcome, 1)
	go func() {
		outcomes <- m.Search()
	}()

	var last uint64
	for i := 0; i < 20; i++ {
		cur := m.Attempts()
		if cur < last {
			t.Fatalf("Attempts went backwards: %d -> %d", last, cur)
		}
		last = cur
		time.Sleep(5 * time.Millisecond)
	}

	m.Stop()
	outcome := <-outcomes
	if outcome.Attempts < last {
		t.Errorf("final Attempts %d below last sample %d", outcome.Attempts, last)
	}
}

package types

import "time"

// NonceRange is an inclusive span of the 64-bit nonce space assigned to a
// single worker. Ranges produced by the partitioner are pairwise disjoint and
// together cover [0, math.MaxUint64] exactly.
type NonceRange struct {
	Start uint64
	End   uint64
}

// Result is the winning candidate delivered by the first worker to satisfy
// the difficulty predicate.
type Result struct {
	Nonce   uint64
	HashHex string
}

// Outcome is the final state of a search: either a match, or the nonce space
// was exhausted (or the search stopped) without one.
type Outcome struct {
	Found    bool
	Nonce    uint64
	HashHex  string
	Attempts uint64
	Duration time.Duration
}

package pow

import (
	"encoding/hex"
	"hash"
	"strconv"

	sha256 "github.com/minio/sha256-simd"
)

const (
	// DigestLen is the SHA-256 output size in bytes.
	DigestLen = 32

	// HexLen is the digest length rendered as hex characters.
	HexLen = DigestLen * 2

	// maxDecimalLen is the longest decimal rendering of a uint64 nonce.
	maxDecimalLen = 20
)

// Hasher computes sha256(prefix + decimal(nonce)) digests with no per-call
// allocations. Not safe for concurrent use; each worker owns one.
type Hasher struct {
	h         hash.Hash
	input     []byte // prefix bytes followed by the decimal nonce
	prefixLen int

	// Pre-allocated buffers for the hot path
	digest [DigestLen]byte
	hexBuf [HexLen]byte
}

// NewHasher creates a hasher primed with the fixed prefix.
func NewHasher(prefix string) *Hasher {
	h := &Hasher{
		h:         sha256.New(),
		input:     make([]byte, 0, len(prefix)+maxDecimalLen),
		prefixLen: len(prefix),
	}
	h.input = append(h.input, prefix...)
	return h
}

// Match computes the digest for nonce and reports whether its lowercase hex
// rendering starts with at least difficulty '0' characters. The comparison is
// done on hex text, not raw digest bytes, so odd difficulties count exactly
// one nibble per character.
func (h *Hasher) Match(nonce uint64, difficulty int) bool {
	h.input = strconv.AppendUint(h.input[:h.prefixLen], nonce, 10)
	h.h.Reset()
	h.h.Write(h.input)
	sum := h.h.Sum(h.digest[:0])
	hex.Encode(h.hexBuf[:], sum)

	if difficulty <= 0 {
		return true
	}
	if difficulty > HexLen {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if h.hexBuf[i] != '0' {
			return false
		}
	}
	return true
}

// HexDigest returns the hex digest of the most recent Match call as a new
// string. Only call when the result is needed for output.
func (h *Hasher) HexDigest() string {
	return string(h.hexBuf[:])
}

// InputString returns the exact prefix+nonce text hashed by the most recent
// Match call.
func (h *Hasher) InputString() string {
	return string(h.input)
}

// SumHex returns the lowercase hex SHA-256 digest of prefix + decimal(nonce).
// Allocating one-shot variant for verification and tests.
func SumHex(prefix string, nonce uint64) string {
	d := sha256.Sum256([]byte(prefix + strconv.FormatUint(nonce, 10)))
	return hex.EncodeToString(d[:])
}

// MeetsDifficulty reports whether hexDigest starts with at least difficulty
// literal '0' characters.
func MeetsDifficulty(hexDigest string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if difficulty > len(hexDigest) {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if hexDigest[i] != '0' {
			return false
		}
	}
	return true
}

// Package ga implements the Canonical GA (C6, tech-vector-only search)
// and the Hybrid GA (C7, co-evolved partition+tech search) described in
// §4.5/§4.6, plus the deterministic RNG stream-splitting and fitness
// caching both variants share.
package ga

import (
	"hash/fnv"
	"math/rand"
)

// StreamSplitter hands out one *rand.Rand per (generation, candidate
// index) pair, deterministically derived from a single master seed, so a
// run is reproducible regardless of how many goroutines evaluate
// candidates concurrently or in what order. Adapted from the teacher's
// sim/cluster PartitionedRNG (hash-derived per-subsystem streams from one
// master seed); here the "subsystem" is a generation×candidate-index
// pair rather than a named subsystem.
type StreamSplitter struct {
	masterSeed int64
}

// NewStreamSplitter returns a StreamSplitter rooted at masterSeed.
func NewStreamSplitter(masterSeed int64) *StreamSplitter {
	return &StreamSplitter{masterSeed: masterSeed}
}

// For returns a fresh, independent RNG for (generation, index). Calling
// it twice with the same arguments yields two RNGs with identical future
// output, since each call derives its seed afresh rather than mutating
// shared state — safe to call concurrently from multiple workers.
func (s *StreamSplitter) For(generation, index int) *rand.Rand {
	h := fnv.New64a()
	var buf [16]byte
	putInt64(buf[0:8], int64(generation))
	putInt64(buf[8:16], int64(index))
	h.Write(buf[:])
	streamHash := int64(h.Sum64())
	return rand.New(rand.NewSource(s.masterSeed ^ streamHash))
}

func putInt64(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * uint(i)))
	}
}

// Package rng provides seeded random draws. Investment months seed one RNG
// each from SeedFor, so replaying a settlement gives the same results.
package rng

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
)

// RNG wraps math/rand.Rand. Two RNGs from the same seed yield the same draws.
type RNG struct {
	src *rand.Rand
}

// New creates a deterministic RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{src: rand.New(rand.NewSource(seed))}
}

// Float64 returns a number in [0.0, 1.0).
func (r *RNG) Float64() float64 {
	return r.src.Float64()
}

// Chance reports true with probability p. p <= 0 never fires and p >= 1
// always fires, but a draw is consumed either way.
func (r *RNG) Chance(p float64) bool {
	return r.Float64() < p
}

// SeedFor derives a stable seed from a list of key parts and an index.
// The same inputs always produce the same seed.
func SeedFor(index int64, parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(index))
	h.Write(buf[:])
	return int64(h.Sum64())
}

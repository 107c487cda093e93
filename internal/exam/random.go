// Package exam selects vocabulary into graded sections and renders the exam
// and answer documents for one run.
package exam

import (
	"encoding/binary"
	"math/rand/v2"

	"golang.org/x/crypto/blake2b"
)

// RandomSource is the single source of randomness for selection and option
// ordering. IntN returns a value in [0, n).
type RandomSource interface {
	IntN(n int) int
}

// NewSource returns a PCG-backed source for a fixed seed.
func NewSource(seed1, seed2 uint64) RandomSource {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// SourceFromSeed derives a reproducible source from an arbitrary string.
// An empty seed yields a randomly seeded source.
func SourceFromSeed(seed string) RandomSource {
	if seed == "" {
		return NewSource(rand.Uint64(), rand.Uint64())
	}
	sum := blake2b.Sum256([]byte(seed))
	return NewSource(
		binary.LittleEndian.Uint64(sum[0:8]),
		binary.LittleEndian.Uint64(sum[8:16]),
	)
}

// Shuffle returns a Fisher–Yates permutation of items, drawing once per
// position with a decreasing upper bound. items is not modified.
func Shuffle[T any](rng RandomSource, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

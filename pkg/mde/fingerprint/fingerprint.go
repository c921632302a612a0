// Package fingerprint provides content identification for duplicate
// detection: streaming cryptographic digests for exact matching and
// fixed-size perceptual fingerprints compared by Hamming distance for
// similarity matching.
package fingerprint

import (
	"errors"
	"math/bits"
)

// DefaultHashSize is the per-axis size of the perceptual hash grid.
// A 16x16 grid yields a 256-bit fingerprint.
const DefaultHashSize = 16

// DefaultTolerance is the maximum Hamming distance between two
// fingerprints for them to be considered duplicates.
const DefaultTolerance = 10

// ErrBitsMismatch is returned when comparing fingerprints of different
// bit lengths. Fingerprints are only comparable at the same size.
var ErrBitsMismatch = errors.New("fingerprint bit lengths differ")

// Digest is a hex-encoded cryptographic content hash. Equal digests
// imply byte-identical content with overwhelming probability.
type Digest string

// Fingerprint is a fixed-size bit vector summarizing perceptual content.
type Fingerprint struct {
	words []uint64
	bits  int
}

// New builds a fingerprint from packed hash words and a bit length.
func New(words []uint64, bits int) *Fingerprint {
	w := make([]uint64, len(words))
	copy(w, words)
	return &Fingerprint{words: w, bits: bits}
}

// Bits returns the fingerprint's length in bits.
func (f *Fingerprint) Bits() int {
	return f.bits
}

// Distance returns the Hamming distance to another fingerprint.
// Lower is more similar; zero means perceptually identical.
func (f *Fingerprint) Distance(other *Fingerprint) (int, error) {
	if f.bits != other.bits || len(f.words) != len(other.words) {
		return 0, ErrBitsMismatch
	}

	d := 0
	for i := range f.words {
		d += bits.OnesCount64(f.words[i] ^ other.words[i])
	}
	return d, nil
}

// Similar reports whether two fingerprints are within the tolerance.
// Fingerprints of different bit lengths are never similar.
func Similar(a, b *Fingerprint, tolerance int) bool {
	d, err := a.Distance(b)
	if err != nil {
		return false
	}
	return d <= tolerance
}

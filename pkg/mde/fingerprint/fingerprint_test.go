package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	a := New([]uint64{0x0, 0x0, 0x0, 0x0}, 256)
	b := New([]uint64{0x0, 0x0, 0x0, 0x0}, 256)
	c := New([]uint64{0xFF, 0x0, 0x0, 0x0}, 256)

	d, err := a.Distance(b)
	require.NoError(t, err)
	assert.Equal(t, 0, d)

	d, err = a.Distance(c)
	require.NoError(t, err)
	assert.Equal(t, 8, d)
}

func TestDistanceBitsMismatch(t *testing.T) {
	a := New([]uint64{0x0}, 64)
	b := New([]uint64{0x0, 0x0}, 128)

	_, err := a.Distance(b)
	assert.ErrorIs(t, err, ErrBitsMismatch)
}

func TestSimilar(t *testing.T) {
	a := New([]uint64{0x0, 0x0, 0x0, 0x0}, 256)
	close := New([]uint64{0x3FF, 0x0, 0x0, 0x0}, 256)   // 10 bits apart
	far := New([]uint64{0x7FF, 0x0, 0x0, 0x0}, 256)     // 11 bits apart
	mismatch := New([]uint64{0x0}, 64)

	assert.True(t, Similar(a, close, DefaultTolerance))
	assert.False(t, Similar(a, far, DefaultTolerance))
	assert.False(t, Similar(a, mismatch, DefaultTolerance))
}

func TestNewCopiesWords(t *testing.T) {
	words := []uint64{0xABCD}
	f := New(words, 64)
	words[0] = 0

	g := New([]uint64{0xABCD}, 64)
	d, err := f.Distance(g)
	require.NoError(t, err)
	assert.Equal(t, 0, d)
}

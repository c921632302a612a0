package fingerprint

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePNG writes a small gradient image, shifted by offset so different
// offsets produce perceptually different content.
func writePNG(t *testing.T, path string, offset uint8) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(x*4) + offset
			img.Set(x, y, color.RGBA{R: v, G: v / 2, B: uint8(y * 4), A: 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestExactDigest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	c := filepath.Join(dir, "c.bin")

	require.NoError(t, os.WriteFile(a, []byte("same content"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same content"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("other content"), 0o644))

	p := NewMediaProvider(DefaultHashSize)

	da, err := p.ExactDigest(a)
	require.NoError(t, err)
	db, err := p.ExactDigest(b)
	require.NoError(t, err)
	dc, err := p.ExactDigest(c)
	require.NoError(t, err)

	assert.Equal(t, da, db)
	assert.NotEqual(t, da, dc)
	assert.Len(t, string(da), 64) // hex-encoded sha256
}

func TestExactDigestMissingFile(t *testing.T) {
	p := NewMediaProvider(DefaultHashSize)
	_, err := p.ExactDigest(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestPerceptualFingerprintIdenticalImages(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 0)
	writePNG(t, b, 0)

	p := NewMediaProvider(DefaultHashSize)

	fa, err := p.PerceptualFingerprint(a)
	require.NoError(t, err)
	require.NotNil(t, fa)
	assert.Equal(t, DefaultHashSize*DefaultHashSize, fa.Bits())

	fb, err := p.PerceptualFingerprint(b)
	require.NoError(t, err)
	require.NotNil(t, fb)

	d, err := fa.Distance(fb)
	require.NoError(t, err)
	assert.Equal(t, 0, d)
}

func TestPerceptualFingerprintNonImage(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("not an image"), 0o644))

	p := NewMediaProvider(DefaultHashSize)

	fp, err := p.PerceptualFingerprint(txt)
	require.NoError(t, err)
	assert.Nil(t, fp)
}

func TestPerceptualFingerprintMissingFile(t *testing.T) {
	p := NewMediaProvider(DefaultHashSize)
	_, err := p.PerceptualFingerprint(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

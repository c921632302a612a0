package dedup

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/mde/pkg/mde/fingerprint"
	"github.com/jamesainslie/mde/pkg/mde/types"
)

// stubProvider serves canned digests and fingerprints keyed by path.
// Files still need to exist on disk for the sizing pass.
type stubProvider struct {
	digests map[string]string
	prints  map[string]*fingerprint.Fingerprint
	errs    map[string]error
}

func (s *stubProvider) ExactDigest(path string) (fingerprint.Digest, error) {
	if err, ok := s.errs[path]; ok {
		return "", err
	}
	return fingerprint.Digest(s.digests[path]), nil
}

func (s *stubProvider) PerceptualFingerprint(path string) (*fingerprint.Fingerprint, error) {
	if err, ok := s.errs[path]; ok {
		return nil, err
	}
	return s.prints[path], nil
}

// fp builds a 256-bit fingerprint whose low word is the given pattern.
func fp(pattern uint64) *fingerprint.Fingerprint {
	return fingerprint.New([]uint64{pattern, 0, 0, 0}, 256)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func find(t *testing.T, opts Options, paths []string) *types.Report {
	t.Helper()
	report, err := New(opts).Find(context.Background(), paths)
	require.NoError(t, err)
	return report
}

func TestFindEmptyInput(t *testing.T) {
	report := find(t, Options{}, nil)

	assert.Empty(t, report.Groups)
	assert.Zero(t, report.TotalFiles)
	assert.Zero(t, report.Errors)
}

func TestFindExactTriple(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "identical bytes")
	b := writeFile(t, dir, "b.jpg", "identical bytes")
	c := writeFile(t, dir, "c.jpg", "identical bytes")
	unique := writeFile(t, dir, "unique.jpg", "something else ha")

	report := find(t, Options{}, []string{c, a, unique, b})

	require.Len(t, report.Groups, 1)
	group := report.Groups[0]
	assert.Equal(t, types.Exact, group.Type)
	assert.Equal(t, []string{a, b, c}, group.Files)
	assert.Equal(t, int64(len("identical bytes")*2), group.WastedBytes)
	assert.Equal(t, 4, report.TotalFiles)
	assert.Zero(t, report.Errors)
}

func TestFindDifferentSizesNeverExact(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bin", "short")
	b := writeFile(t, dir, "b.bin", "a bit longer content")

	report := find(t, Options{}, []string{a, b})

	for _, g := range report.Groups {
		assert.NotEqual(t, types.Exact, g.Type)
	}
	assert.Empty(t, report.Groups)
}

func TestFindSameSizeDifferentContent(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bin", "content-one")
	b := writeFile(t, dir, "b.bin", "content-two")

	report := find(t, Options{}, []string{a, b})
	assert.Empty(t, report.Groups)
}

func TestFindStatFailureCounted(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bin", "data")
	missing := filepath.Join(dir, "missing.bin")

	report := find(t, Options{}, []string{a, missing})

	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 2, report.TotalFiles)
	assert.Empty(t, report.Groups)
}

func TestFindDigestFailureExcludesOnlyThatFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bin", "same size!")
	b := writeFile(t, dir, "b.bin", "same size!")
	c := writeFile(t, dir, "c.bin", "same size!")

	provider := &stubProvider{
		digests: map[string]string{a: "d1", b: "d1", c: "d1"},
		errs:    map[string]error{c: os.ErrPermission},
	}

	report := find(t, Options{Provider: provider}, []string{a, b, c})

	require.Len(t, report.Groups, 1)
	assert.Equal(t, []string{a, b}, report.Groups[0].Files)
	assert.Equal(t, 1, report.Errors)
}

func TestFindPerceptualCluster(t *testing.T) {
	dir := t.TempDir()
	// Different sizes, so the exact pass cannot touch them.
	a := writeFile(t, dir, "a.jpg", "aa")
	b := writeFile(t, dir, "b.jpg", "bbbb")
	c := writeFile(t, dir, "c.jpg", "cccccc")

	provider := &stubProvider{
		prints: map[string]*fingerprint.Fingerprint{
			a: fp(0x0),
			b: fp(0x1F),       // 5 bits from a
			c: fp(0xFFFFFFFF), // far from both
		},
	}

	report := find(t, Options{Provider: provider}, []string{a, b, c})

	require.Len(t, report.Groups, 1)
	group := report.Groups[0]
	assert.Equal(t, types.Perceptual, group.Type)
	assert.Equal(t, []string{a, b}, group.Files)
	assert.Equal(t, int64(4), group.WastedBytes)
}

// Greedy clustering is anchored on the seed: b is within tolerance of
// both a and c, but c is too far from the seed a, so c never joins and
// its own cluster stays size one.
func TestFindClusterSeedAnchored(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "aa")
	b := writeFile(t, dir, "b.jpg", "bbbb")
	c := writeFile(t, dir, "c.jpg", "cccccc")

	provider := &stubProvider{
		prints: map[string]*fingerprint.Fingerprint{
			a: fp(0x00000000),
			b: fp(0x000003FF), // 10 bits from a, 10 bits from c
			c: fp(0x000FFFFF), // 20 bits from a
		},
	}

	report := find(t, Options{Provider: provider}, []string{a, b, c})

	require.Len(t, report.Groups, 1)
	assert.Equal(t, []string{a, b}, report.Groups[0].Files)
}

func TestFindExactGroupFoldedIntoPerceptualCluster(t *testing.T) {
	dir := t.TempDir()
	a1 := writeFile(t, dir, "a1.jpg", "exact-pair")
	a2 := writeFile(t, dir, "a2.jpg", "exact-pair")
	b := writeFile(t, dir, "b.jpg", "resized copy")

	provider := &stubProvider{
		digests: map[string]string{a1: "d1", a2: "d1"},
		prints: map[string]*fingerprint.Fingerprint{
			a1: fp(0x0), // representative of the exact group
			b:  fp(0x3),
		},
	}

	report := find(t, Options{Provider: provider}, []string{b, a2, a1})

	require.Len(t, report.Groups, 1)
	group := report.Groups[0]
	assert.Equal(t, types.Perceptual, group.Type)
	assert.Equal(t, []string{a1, a2, b}, group.Files)
}

func TestFindNoPathInTwoGroups(t *testing.T) {
	dir := t.TempDir()
	a1 := writeFile(t, dir, "a1.jpg", "exact-pair")
	a2 := writeFile(t, dir, "a2.jpg", "exact-pair")
	b := writeFile(t, dir, "b.jpg", "similar b")
	c1 := writeFile(t, dir, "c1.jpg", "second pair!")
	c2 := writeFile(t, dir, "c2.jpg", "second pair!")

	provider := &stubProvider{
		digests: map[string]string{a1: "d1", a2: "d1", c1: "d2", c2: "d2"},
		prints: map[string]*fingerprint.Fingerprint{
			a1: fp(0x0),
			b:  fp(0x1),
			c1: fp(0xFFFFFF), // far from the a cluster
		},
	}

	report := find(t, Options{Provider: provider}, []string{a1, a2, b, c1, c2})

	seen := make(map[string]int)
	for _, g := range report.Groups {
		for _, p := range g.Files {
			seen[p]++
		}
	}
	for path, count := range seen {
		assert.Equal(t, 1, count, path)
	}

	// The untouched exact pair keeps its Exact tag.
	require.Len(t, report.Groups, 2)
	assert.Equal(t, types.Perceptual, report.Groups[0].Type)
	assert.Equal(t, []string{a1, a2, b}, report.Groups[0].Files)
	assert.Equal(t, types.Exact, report.Groups[1].Type)
	assert.Equal(t, []string{c1, c2}, report.Groups[1].Files)
}

func TestFindProgressReported(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bin", "same length")
	b := writeFile(t, dir, "b.bin", "same length")

	var mu sync.Mutex
	phases := make(map[string]bool)
	progress := func(done, total int, phase string) {
		mu.Lock()
		defer mu.Unlock()
		phases[phase] = true
		assert.LessOrEqual(t, done, total)
	}

	find(t, Options{Progress: progress}, []string{a, b})

	assert.True(t, phases[PhaseSizing])
	assert.True(t, phases[PhaseHashing])
	assert.True(t, phases[PhaseFingerprinting])
}

func TestFindCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.bin", "data")

	_, err := New(Options{}).Find(ctx, []string{a})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsValidateDefaults(t *testing.T) {
	var opts Options
	opts.Validate()

	assert.NotNil(t, opts.Provider)
	assert.Positive(t, opts.Workers)
	assert.Equal(t, fingerprint.DefaultTolerance, opts.Tolerance)

	exact := Options{Tolerance: ToleranceExact}
	exact.Validate()
	assert.Zero(t, exact.Tolerance)
}

// The zero Options value must cluster at the default tolerance; callers
// constructing Options without an explicit Tolerance get ten bits, not
// identical-fingerprint-only matching.
func TestFindZeroOptionsUseDefaultTolerance(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "aa")
	b := writeFile(t, dir, "b.jpg", "bbbb")

	provider := &stubProvider{
		prints: map[string]*fingerprint.Fingerprint{
			a: fp(0x0),
			b: fp(0x3FF), // exactly ten bits from a
		},
	}

	report := find(t, Options{Provider: provider}, []string{a, b})

	require.Len(t, report.Groups, 1)
	assert.Equal(t, types.Perceptual, report.Groups[0].Type)
	assert.Equal(t, []string{a, b}, report.Groups[0].Files)
}

func TestFindToleranceExact(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "aa")
	b := writeFile(t, dir, "b.jpg", "bbbb")
	c := writeFile(t, dir, "c.jpg", "cccccc")

	provider := &stubProvider{
		prints: map[string]*fingerprint.Fingerprint{
			a: fp(0x0),
			b: fp(0x1), // one bit from a: within default, outside exact
			c: fp(0x0),
		},
	}

	report := find(t, Options{Provider: provider, Tolerance: ToleranceExact}, []string{a, b, c})

	require.Len(t, report.Groups, 1)
	assert.Equal(t, []string{a, c}, report.Groups[0].Files)
}

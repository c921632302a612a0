package fingerprint

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/corona10/goimagehash"

	// Register decoders for the image formats the provider fingerprints.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// readBufferSize is the buffer size used when streaming file content
// through the digest.
const readBufferSize = 64 * 1024

// Provider computes content identifiers for files. Implementations must
// be safe for concurrent use; the detection engine calls them from
// multiple workers.
type Provider interface {
	// ExactDigest streams the full file content through a cryptographic
	// hash and returns the hex-encoded digest.
	ExactDigest(path string) (Digest, error)

	// PerceptualFingerprint returns a perceptual fingerprint for the
	// file, or (nil, nil) when the file is not a recognized media type.
	// A non-nil error indicates a genuine processing failure, distinct
	// from "not media".
	PerceptualFingerprint(path string) (*Fingerprint, error)
}

// MediaProvider is the default Provider. It digests any file with
// SHA-256 and fingerprints decodable images with a perception hash.
// Files that do not decode as images (including videos, which need an
// external frame sampler) yield no fingerprint.
type MediaProvider struct {
	hashSize int
}

// NewMediaProvider returns a MediaProvider with the given per-axis
// perceptual hash size. Sizes below 8 fall back to DefaultHashSize.
func NewMediaProvider(hashSize int) *MediaProvider {
	if hashSize < 8 {
		hashSize = DefaultHashSize
	}
	return &MediaProvider{hashSize: hashSize}
}

// ExactDigest computes the SHA-256 digest of the file at path.
func (p *MediaProvider) ExactDigest(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	r := bufio.NewReaderSize(f, readBufferSize)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash %q: %w", path, err)
	}

	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// PerceptualFingerprint decodes the file as an image and computes its
// perception hash. Files that fail to decode are reported as not media,
// not as errors: a text file next to the photos is expected, not broken.
func (p *MediaProvider) PerceptualFingerprint(path string) (*Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, nil
	}

	hash, err := goimagehash.ExtPerceptionHash(img, p.hashSize, p.hashSize)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %q: %w", path, err)
	}

	return New(hash.GetHash(), hash.Bits()), nil
}

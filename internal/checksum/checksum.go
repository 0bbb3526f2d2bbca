// Package checksum computes hex digests of files and byte streams for the
// configured checksum algorithm. No library in the retrieval pack offers
// md5/sha1/sha256/sha512 digests (the pack's one hashing dependency,
// zeebo/blake3, implements an unrelated algorithm never named by the
// spec), so this is one of the few components built directly on the
// standard library; see DESIGN.md.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/luochenglcs/createrepo-go/internal/model"
)

// New returns a fresh hash.Hash for the given checksum type.
func New(t model.ChecksumType) (hash.Hash, error) {
	switch t {
	case model.ChecksumMD5:
		return md5.New(), nil
	case model.ChecksumSHA1:
		return sha1.New(), nil
	case model.ChecksumSHA256:
		return sha256.New(), nil
	case model.ChecksumSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("checksum: unknown algorithm %q", t)
	}
}

// File returns the hex digest of path under the given algorithm.
func File(path string, t model.ChecksumType) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Reader(f, t)
}

// Reader returns the hex digest of everything read from r.
func Reader(r io.Reader, t model.ChecksumType) (string, error) {
	h, err := New(t)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

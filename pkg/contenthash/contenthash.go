// Package contenthash computes the fingerprint used to content-address
// MusicXML documents in the catalog and the object store.
package contenthash

import (
	"crypto/md5" //nolint:gosec // deduplication key, not a security boundary
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
)

// Size is the length of a fingerprint in hex characters.
const Size = md5.Size * 2

// Sum returns the hex-encoded 128-bit digest of the whole of data.
func Sum(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// SumReader is Sum for a stream. It consumes r until EOF.
func SumReader(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, r); err != nil {
		return "", errors.WithStack(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Valid reports whether s has the shape of a fingerprint.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

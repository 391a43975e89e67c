// Package checksum computes stable content hashes for change detection
package checksum

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Fields hashes an ordered list of strings with length prefixes so that
// ("ab","c") and ("a","bc") never collide. The hex digest is stable across
// processes and releases; it is persisted and compared, never re-derived
// from stored rows
func Fields(parts ...string) string {
	h := sha256.New()
	var lenBuf [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Package checksum fingerprints note text for optimistic concurrency and
// vector-state bookkeeping.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Text returns the hex-encoded SHA-256 digest of a note body.
func Text(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Matches reports whether ifMatch names the digest of s. Surrounding quotes
// (ETag form) are ignored and an empty token matches anything.
func Matches(ifMatch, s string) bool {
	if n := len(ifMatch); n >= 2 && ifMatch[0] == '"' && ifMatch[n-1] == '"' {
		ifMatch = ifMatch[1 : n-1]
	}
	return ifMatch == "" || ifMatch == Text(s)
}

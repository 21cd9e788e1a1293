package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashFields builds a deterministic hash over ordered string fields.
// Used to fingerprint analysis inputs so identical runs are recognizable.
func HashFields(fields ...string) Hash {
	return NewHash([]byte(strings.Join(fields, "|")))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns a truncated form for logging
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return fmt.Sprintf("%s…", string(h[:12]))
}

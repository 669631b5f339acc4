package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Scope joins a scope kind and its qualifiers into a generation key,
// e.g. Scope("instances", "group", id) => "instances:group:<id>".
func Scope(kind string, parts ...string) string {
	if len(parts) == 0 {
		return kind
	}
	return kind + ":" + strings.Join(parts, ":")
}

// ShortHash returns the first 16 hex chars of the SHA-256 of s.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

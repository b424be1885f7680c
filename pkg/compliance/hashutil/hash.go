// Package hashutil provides the canonical JSON serialization and SHA-256
// hashing primitives that every integrity-sensitive record in this module
// (evidence records, audit entries, chains, bundles, rule cache keys) is
// built on. All hashing goes through CanonicalJSON so that the same logical
// content always produces the same digest, independent of map iteration
// order or caller-supplied key order.
package hashutil

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// CanonicalJSON renders v as UTF-8 JSON with lexicographically sorted object
// keys, no insignificant whitespace, and numbers in their shortest
// round-trip form. encoding/json already sorts map[string]interface{} keys
// and uses a shortest-form float encoder; this wrapper only disables HTML
// escaping (so punctuation in compliance content hashes identically across
// languages) and strips the trailing newline Encode adds.
func CanonicalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// HashCanonical canonicalizes v and returns the hex-encoded SHA-256 digest
// of the result. This is the basis of invariant I1: every stored record's
// hash field equals SHA-256(canonical(input)) at creation time.
func HashCanonical(v interface{}) (string, error) {
	b, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}

// HashBytes returns the hex-encoded SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashString is a convenience wrapper around HashBytes for string input.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashConcat returns the hex-encoded SHA-256 digest of the concatenation of
// hexHashes, in the order given. Used to build evidence chain and audit
// bundle aggregate hashes from their members' individual hashes.
func HashConcat(hexHashes []string) string {
	h := sha256.New()
	for _, hh := range hexHashes {
		h.Write([]byte(hh))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MD5Hex returns the hex-encoded MD5 digest of s, for non-security uses
// where speed matters more than collision resistance. The rule engine's
// cache keys call crypto/md5 directly, and IDs are derived with HashString.
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

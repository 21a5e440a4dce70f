package merkle

import (
	"crypto/sha256"
	"encoding/hex"
)

// ChildRef is the (hash, path) pair a directory hash is computed over.
type ChildRef struct {
	Hash string
	Path string
}

// HashBytes returns the lowercase hex SHA-256 digest of the UTF-8 bytes of content.
func HashBytes(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// HashDirectory hashes the concatenation of hash+path for each child, in the
// order given. No separators or length prefixes are injected: the server
// recomputes the exact same byte stream, so the framing must stay bare.
// Callers sort children before calling.
func HashDirectory(children []ChildRef) string {
	h := sha256.New()
	for _, child := range children {
		h.Write([]byte(child.Hash))
		h.Write([]byte(child.Path))
	}
	return hex.EncodeToString(h.Sum(nil))
}

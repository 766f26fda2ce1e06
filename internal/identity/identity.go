// Package identity derives the fixed-size binary keys that partition all
// per-account data in the store. The same identifier always yields the
// same key, so the key can be recomputed on demand and never needs its own
// lifecycle.
package identity

import (
	"crypto/sha256"

	"github.com/MR4white/tigase-mongodb/internal/model"
)

// KeySize is the size in bytes of a derived identity key.
const KeySize = sha256.Size

// Key is a 256-bit digest of a canonical user identifier. It is used as
// the _id of user documents and as the uid/owner_id/buddy_id partition
// fields of node and archive documents.
type Key [KeySize]byte

// Derive maps a user identifier to its identity key. The identifier is
// case-normalized first, so Derive("User@Example.COM") and
// Derive("user@example.com") are the same key.
func Derive(jid string) Key {
	return sha256.Sum256([]byte(model.NormalizeJID(jid)))
}

// Bytes returns the key as a byte slice for use in store filters.
func (k Key) Bytes() []byte {
	out := make([]byte, KeySize)
	copy(out, k[:])
	return out
}

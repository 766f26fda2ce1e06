package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerive_Deterministic(t *testing.T) {
	require.Equal(t, Derive("alice@example.com"), Derive("alice@example.com"))
}

func TestDerive_CaseNormalized(t *testing.T) {
	require.Equal(t, Derive("alice@example.com"), Derive("Alice@Example.COM"))
}

func TestDerive_DistinctIdentifiers(t *testing.T) {
	require.NotEqual(t, Derive("alice@example.com"), Derive("bob@example.com"))
}

func TestKeyBytes(t *testing.T) {
	key := Derive("alice@example.com")
	b := key.Bytes()
	require.Len(t, b, KeySize)

	// Bytes returns a copy; mutating it must not affect the key.
	b[0] ^= 0xff
	require.Equal(t, Derive("alice@example.com"), key)
}

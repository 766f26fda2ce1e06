package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJID(t *testing.T) {
	require.Equal(t, "alice@example.com", NormalizeJID(" Alice@Example.COM "))
}

func TestDomainOf(t *testing.T) {
	require.Equal(t, "example.com", DomainOf("alice@example.com"))
	require.Equal(t, "", DomainOf("alice"))
}

func TestDayBucket(t *testing.T) {
	ts := time.Date(2014, 8, 21, 17, 30, 12, 500, time.UTC)
	require.Equal(t, time.Date(2014, 8, 21, 0, 0, 0, 0, time.UTC), DayBucket(ts))

	// Truncation happens in UTC regardless of the input zone.
	zone := time.FixedZone("UTC+5", 5*3600)
	late := time.Date(2014, 8, 21, 2, 0, 0, 0, zone) // 2014-08-20 21:00 UTC
	require.Equal(t, time.Date(2014, 8, 20, 0, 0, 0, 0, time.UTC), DayBucket(late))
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("sent")
	require.True(t, ok)
	require.Equal(t, DirectionSent, d)

	_, ok = ParseDirection("bogus")
	require.False(t, ok)
}

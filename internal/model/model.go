package model

import (
	"strings"
	"time"
)

// Direction tells whether the owner sent or received an archived message.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// ParseDirection returns the Direction for its stored string form.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionSent:
		return DirectionSent, true
	case DirectionReceived:
		return DirectionReceived, true
	default:
		return "", false
	}
}

// NormalizeJID returns the canonical (lowercased, trimmed) form of a bare
// user identifier. All identity key derivation and storage goes through
// this form so that differently-cased identifiers map to the same account.
func NormalizeJID(jid string) string {
	return strings.ToLower(strings.TrimSpace(jid))
}

// DomainOf returns the domain part of a bare identifier, or "" when the
// identifier carries no domain separator.
func DomainOf(jid string) string {
	if idx := strings.IndexByte(jid, '@'); idx >= 0 {
		return jid[idx+1:]
	}
	return ""
}

// DayBucket truncates ts to the start of its UTC calendar day. Archive
// records store this bucket at write time so conversation listings can
// group per day on the store side.
func DayBucket(ts time.Time) time.Time {
	return ts.UTC().Truncate(24 * time.Hour)
}

// Conversation is one synthetic group of archived messages sharing a day
// bucket and a counterpart, as returned by conversation listings. Start is
// the earliest message timestamp within the group.
type Conversation struct {
	Buddy string
	Start time.Time
}

// MessageItem is one logical message fragment returned by a message
// listing. A single stored record can yield several fragments when its
// payload encodes more than one top-level element.
type MessageItem struct {
	Timestamp time.Time
	Direction Direction
	Body      string
}

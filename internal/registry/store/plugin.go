package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MR4white/tigase-mongodb/internal/model"
	"github.com/MR4white/tigase-mongodb/internal/rsm"
)

// UserStore manages account rows.
type UserStore interface {
	// AddUser creates an account. Returns *ExistsError when the account
	// is already present.
	AddUser(ctx context.Context, jid string) error
	// AddUserWithPassword creates an account with an initial credential.
	AddUserWithPassword(ctx context.Context, jid, password string) error
	UserExists(ctx context.Context, jid string) (bool, error)
	// Users returns the canonical identifiers of every account.
	Users(ctx context.Context) ([]string, error)
	CountUsers(ctx context.Context) (int64, error)
	CountDomainUsers(ctx context.Context, domain string) (int64, error)
	// RemoveUser deletes the account row and the account's entire node
	// tree.
	RemoveUser(ctx context.Context, jid string) error
}

// NodeStore is the per-user hierarchical key/value namespace. Each
// (owner, node path, key) triple holds either a scalar or a list of
// strings, never both.
type NodeStore interface {
	// SetData upserts a scalar value, replacing any prior value or list
	// at the same triple.
	SetData(ctx context.Context, jid, node, key, value string) error
	// SetDataList replaces everything stored at the triple with the
	// given list. The replace runs as a delete pass then an insert pass
	// submitted in one request; a concurrent reader may observe the
	// triple as absent in between (read-uncommitted during replace).
	SetDataList(ctx context.Context, jid, node, key string, values []string) error
	// AddDataList appends one list document at the triple without
	// touching prior documents.
	AddDataList(ctx context.Context, jid, node, key string, values []string) error
	// GetData returns the scalar at the triple, or ok=false when absent.
	GetData(ctx context.Context, jid, node, key string) (value string, ok bool, err error)
	// GetDataList collects every value stored at the triple, scalar or
	// list, in document order.
	GetDataList(ctx context.Context, jid, node, key string) ([]string, error)
	// Keys returns the distinct key names present at exactly the given
	// node path.
	Keys(ctx context.Context, jid, node string) ([]string, error)
	// Subnodes returns the distinct path segments immediately below the
	// given node path. An owner with nothing below the path yields an
	// empty result.
	Subnodes(ctx context.Context, jid, node string) ([]string, error)
	// RemoveData deletes the triple.
	RemoveData(ctx context.Context, jid, node, key string) error
	// RemoveSubnode deletes every node at the path or below it. Matching
	// is on full segment boundaries: removing "a" takes "a" and "a/b"
	// but leaves "ab" and "a2/b". The root path removes the owner's
	// whole tree.
	RemoveSubnode(ctx context.Context, jid, node string) error
}

// CredentialStore persists account credentials. Authentication itself is
// a caller concern; this interface only reads and writes the stored
// secret.
type CredentialStore interface {
	// GetPassword returns the stored credential. Returns *NotFoundError
	// when the account is absent.
	GetPassword(ctx context.Context, jid string) (string, error)
	// UpdatePassword replaces the stored credential. Returns
	// *NotFoundError when the account is absent.
	UpdatePassword(ctx context.Context, jid, password string) error
	// IsDisabled reports whether the account is disabled.
	IsDisabled(ctx context.Context, jid string) (bool, error)
	// SetDisabled returns ErrNotSupported: account disabling is not a
	// capability of this backend.
	SetDisabled(ctx context.Context, jid string, disabled bool) error
}

// MessageArchive is the append-only conversation archive.
type MessageArchive interface {
	// ArchiveMessage appends one record. It never reports failure to the
	// caller: ingest errors are logged and counted only. This is a
	// deliberate weak-durability tradeoff for the high-volume ingest
	// path.
	ArchiveMessage(ctx context.Context, owner, buddy string, direction model.Direction, timestamp time.Time, payload string)
	// ListCollections lists the distinct (day, buddy) conversation
	// groups matching the filter, ordered by (day, buddy) ascending,
	// windowed by req. buddy, start and end are optional; zero values
	// mean unfiltered. Timestamp bounds are inclusive.
	ListCollections(ctx context.Context, owner, buddy string, start, end time.Time, req rsm.Request) ([]model.Conversation, rsm.Result, error)
	// ListMessages lists the message fragments of one conversation,
	// ordered by timestamp ascending, windowed by req. start is
	// required; end is optional (zero value).
	ListMessages(ctx context.Context, owner, buddy string, start, end time.Time, req rsm.Request) ([]model.MessageItem, rsm.Result, error)
	// RemoveItems deletes the conversation's messages with timestamps in
	// [start, end] inclusive. A zero bound leaves that side unbounded.
	RemoveItems(ctx context.Context, owner, buddy string, start, end time.Time) error
}

// Store is the full capability surface of one backend.
type Store interface {
	UserStore
	NodeStore
	CredentialStore
	MessageArchive

	// Close releases the backend's shared connection state. Called once
	// at process shutdown.
	Close(ctx context.Context) error
}

// Loader creates a Store from config carried in ctx.
type Loader func(ctx context.Context) (Store, error)

// Plugin represents a store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a store plugin. Called from init() in plugin packages.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists run artifacts.
type Store interface {
	// SaveProject upserts an evaluated project.
	SaveProject(ctx context.Context, record *ProjectRecord) error

	// ListProjects returns evaluated projects for a session, newest first.
	ListProjects(ctx context.Context, sessionID string) ([]ProjectRecord, error)

	// SaveBid records a bid placement attempt.
	SaveBid(ctx context.Context, record *BidRecord) error

	// ListBids returns bid records for a session, newest first.
	ListBids(ctx context.Context, sessionID string) ([]BidRecord, error)

	// SaveSession upserts a session record.
	SaveSession(ctx context.Context, record *SessionRecord) error

	// GetSession fetches a session record, or ErrNotFound.
	GetSession(ctx context.Context, id string) (*SessionRecord, error)

	// ListSessions returns all session records.
	ListSessions(ctx context.Context) ([]SessionRecord, error)

	// DeleteSession removes a session record. Deleting a missing session
	// is not an error.
	DeleteSession(ctx context.Context, id string) error

	// AppendActivity adds an entry to a session's activity log.
	AppendActivity(ctx context.Context, entry *ActivityEntry) error

	// ListActivity returns up to limit activity entries for a session,
	// newest first. limit <= 0 returns all entries.
	ListActivity(ctx context.Context, sessionID string, limit int) ([]ActivityEntry, error)
}

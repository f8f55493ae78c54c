// Package store persists run artifacts: evaluated projects, placed bids,
// session records and activity log entries. The NATS-backed implementation
// is used in deployments; the in-memory implementation backs single runs
// and tests.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Session statuses.
const (
	SessionStatusIdle    = "idle"
	SessionStatusRunning = "running"
	SessionStatusStopped = "stopped"
	SessionStatusError   = "error"
)

// Bid statuses.
const (
	BidStatusPlaced = "placed"
	BidStatusFailed = "failed"
	BidStatusDryRun = "dry_run"
)

// Activity levels.
const (
	ActivityInfo    = "INFO"
	ActivityWarning = "WARNING"
	ActivityError   = "ERROR"
)

// ProjectRecord is a project the pipeline evaluated.
type ProjectRecord struct {
	ProjectID     int64     `json:"project_id"`
	SessionID     string    `json:"session_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	OwnerID       int64     `json:"owner_id"`
	MinimumBudget float64   `json:"minimum_budget"`
	MaximumBudget float64   `json:"maximum_budget"`
	Currency      string    `json:"currency"`
	Type          string    `json:"type"`
	ExchangeRate  float64   `json:"exchange_rate"`
	SEOURL        string    `json:"seo_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// BidRecord is the outcome of one bid placement attempt.
type BidRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	ProjectID  int64     `json:"project_id"`
	Title      string    `json:"title"`
	Amount     float64   `json:"amount"`
	PeriodDays int       `json:"period_days"`
	Currency   string    `json:"currency"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	PlacedAt   time.Time `json:"placed_at"`
}

// SessionRecord tracks one bot session's lifecycle and aggregate counters.
// Config carries the session's serialized configuration opaquely so the
// store stays independent of the session package.
type SessionRecord struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Status            string     `json:"status"`
	Config            []byte     `json:"config,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	StoppedAt         *time.Time `json:"stopped_at,omitempty"`
	ProjectsFound     int        `json:"projects_found"`
	ProjectsProcessed int        `json:"projects_processed"`
	BidsPlaced        int        `json:"bids_placed"`
	Errors            int        `json:"errors"`
}

// ActivityEntry is one diagnostic event in a session's activity log.
type ActivityEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	ProjectID int64     `json:"project_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActivityEntry builds a timestamped activity entry with a fresh ID.
func NewActivityEntry(sessionID, level, message string, projectID int64) *ActivityEntry {
	return &ActivityEntry{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Level:     level,
		Message:   message,
		ProjectID: projectID,
		Timestamp: time.Now().UTC(),
	}
}

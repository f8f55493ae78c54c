package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for single runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]map[int64]ProjectRecord // sessionID -> projectID -> record
	bids     map[string][]BidRecord             // sessionID -> records
	sessions map[string]SessionRecord
	activity map[string][]ActivityEntry // sessionID -> entries
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]map[int64]ProjectRecord),
		bids:     make(map[string][]BidRecord),
		sessions: make(map[string]SessionRecord),
		activity: make(map[string][]ActivityEntry),
	}
}

// SaveProject upserts an evaluated project.
func (m *MemoryStore) SaveProject(_ context.Context, record *ProjectRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID, ok := m.projects[record.SessionID]
	if !ok {
		byID = make(map[int64]ProjectRecord)
		m.projects[record.SessionID] = byID
	}
	byID[record.ProjectID] = *record
	return nil
}

// ListProjects returns evaluated projects for a session, newest first.
func (m *MemoryStore) ListProjects(_ context.Context, sessionID string) ([]ProjectRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]ProjectRecord, 0, len(m.projects[sessionID]))
	for _, r := range m.projects[sessionID] {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// SaveBid records a bid placement attempt.
func (m *MemoryStore) SaveBid(_ context.Context, record *BidRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bids[record.SessionID] = append(m.bids[record.SessionID], *record)
	return nil
}

// ListBids returns bid records for a session, newest first.
func (m *MemoryStore) ListBids(_ context.Context, sessionID string) ([]BidRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]BidRecord, len(m.bids[sessionID]))
	copy(records, m.bids[sessionID])
	sort.Slice(records, func(i, j int) bool {
		return records[i].PlacedAt.After(records[j].PlacedAt)
	})
	return records, nil
}

// SaveSession upserts a session record.
func (m *MemoryStore) SaveSession(_ context.Context, record *SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[record.ID] = *record
	return nil
}

// GetSession fetches a session record, or ErrNotFound.
func (m *MemoryStore) GetSession(_ context.Context, id string) (*SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// ListSessions returns all session records.
func (m *MemoryStore) ListSessions(_ context.Context) ([]SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]SessionRecord, 0, len(m.sessions))
	for _, r := range m.sessions {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteSession removes a session record and its dependent data.
func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	delete(m.projects, id)
	delete(m.bids, id)
	delete(m.activity, id)
	return nil
}

// AppendActivity adds an entry to a session's activity log.
func (m *MemoryStore) AppendActivity(_ context.Context, entry *ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activity[entry.SessionID] = append(m.activity[entry.SessionID], *entry)
	return nil
}

// ListActivity returns up to limit activity entries, newest first.
func (m *MemoryStore) ListActivity(_ context.Context, sessionID string, limit int) ([]ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]ActivityEntry, len(m.activity[sessionID]))
	copy(entries, m.activity[sessionID])
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// KV bucket names.
const (
	BucketProjects = "BIDFLOW_PROJECTS"
	BucketBids     = "BIDFLOW_BIDS"
	BucketSessions = "BIDFLOW_SESSIONS"
	BucketActivity = "BIDFLOW_ACTIVITY"
)

// NATSStore persists run artifacts in NATS JetStream KV buckets, giving a
// dashboard on another host the same view as the bot process.
type NATSStore struct {
	projects jetstream.KeyValue
	bids     jetstream.KeyValue
	sessions jetstream.KeyValue
	activity jetstream.KeyValue
}

// NewNATSStore creates (or binds to) the bidflow KV buckets.
func NewNATSStore(ctx context.Context, js jetstream.JetStream) (*NATSStore, error) {
	s := &NATSStore{}

	buckets := []struct {
		name string
		dest *jetstream.KeyValue
	}{
		{BucketProjects, &s.projects},
		{BucketBids, &s.bids},
		{BucketSessions, &s.sessions},
		{BucketActivity, &s.activity},
	}

	for _, b := range buckets {
		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket: b.name,
		})
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", b.name, err)
		}
		*b.dest = kv
	}

	return s, nil
}

// key layout: dependent records are keyed "<sessionID>.<suffix>" so a
// session's data can be enumerated with a prefix scan.
func sessionKey(sessionID, suffix string) string {
	return sessionID + "." + suffix
}

func put(ctx context.Context, kv jetstream.KeyValue, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if _, err := kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// SaveProject upserts an evaluated project.
func (s *NATSStore) SaveProject(ctx context.Context, record *ProjectRecord) error {
	key := sessionKey(record.SessionID, strconv.FormatInt(record.ProjectID, 10))
	return put(ctx, s.projects, key, record)
}

// ListProjects returns evaluated projects for a session, newest first.
func (s *NATSStore) ListProjects(ctx context.Context, sessionID string) ([]ProjectRecord, error) {
	var records []ProjectRecord
	err := s.scan(ctx, s.projects, sessionID, func(data []byte) error {
		var r ProjectRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// SaveBid records a bid placement attempt.
func (s *NATSStore) SaveBid(ctx context.Context, record *BidRecord) error {
	return put(ctx, s.bids, sessionKey(record.SessionID, record.ID), record)
}

// ListBids returns bid records for a session, newest first.
func (s *NATSStore) ListBids(ctx context.Context, sessionID string) ([]BidRecord, error) {
	var records []BidRecord
	err := s.scan(ctx, s.bids, sessionID, func(data []byte) error {
		var r BidRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].PlacedAt.After(records[j].PlacedAt)
	})
	return records, nil
}

// SaveSession upserts a session record.
func (s *NATSStore) SaveSession(ctx context.Context, record *SessionRecord) error {
	return put(ctx, s.sessions, record.ID, record)
}

// GetSession fetches a session record, or ErrNotFound.
func (s *NATSStore) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	entry, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var record SessionRecord
	if err := json.Unmarshal(entry.Value(), &record); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &record, nil
}

// ListSessions returns all session records.
func (s *NATSStore) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	lister, err := s.sessions.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var records []SessionRecord
	for key := range lister.Keys() {
		record, err := s.GetSession(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // deleted concurrently
			}
			return nil, err
		}
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteSession removes a session record. Dependent project/bid/activity
// keys are left to bucket TTL cleanup.
func (s *NATSStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// AppendActivity adds an entry to a session's activity log.
func (s *NATSStore) AppendActivity(ctx context.Context, entry *ActivityEntry) error {
	return put(ctx, s.activity, sessionKey(entry.SessionID, entry.ID), entry)
}

// ListActivity returns up to limit activity entries, newest first.
func (s *NATSStore) ListActivity(ctx context.Context, sessionID string, limit int) ([]ActivityEntry, error) {
	var entries []ActivityEntry
	err := s.scan(ctx, s.activity, sessionID, func(data []byte) error {
		var e ActivityEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// scan visits every value under a session's key prefix.
func (s *NATSStore) scan(ctx context.Context, kv jetstream.KeyValue, sessionID string, visit func([]byte) error) error {
	lister, err := kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("list keys: %w", err)
	}

	prefix := sessionID + "."
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entry, err := kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return fmt.Errorf("get %s: %w", key, err)
		}
		if err := visit(entry.Value()); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return nil
}

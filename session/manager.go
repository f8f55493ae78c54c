// Package session manages named bot sessions: each session pairs a stored
// configuration with at most one live bot run. The dashboard drives
// sessions over HTTP; the manager owns their goroutines and keeps the
// persisted records in step with the live state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/bidflow/bot"
	"github.com/c360studio/bidflow/config"
	"github.com/c360studio/bidflow/store"
)

// Runner is one live bot run. Implemented by *bot.Bot; tests substitute
// fakes so manager behavior is exercised without marketplace traffic.
type Runner interface {
	Run(ctx context.Context) error
	Status() bot.Status
}

// Factory builds a Runner for a session from its effective configuration.
type Factory func(cfg *config.Config, sessionID string) (Runner, error)

// Manager errors.
var (
	ErrAlreadyRunning = errors.New("session is already running")
	ErrNotRunning     = errors.New("session is not running")
)

// Manager owns session records and their live runs.
type Manager struct {
	st      store.Store
	factory Factory
	logger  *slog.Logger

	mu     sync.Mutex
	base   *config.Config
	active map[string]*liveRun
}

// liveRun tracks one running session's goroutine.
type liveRun struct {
	runner Runner
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a session manager. base is the process configuration
// that session overrides are layered onto.
func NewManager(st store.Store, base *config.Config, factory Factory, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		st:      st,
		base:    base,
		factory: factory,
		logger:  logger,
		active:  make(map[string]*liveRun),
	}
}

// SetBase swaps the process configuration that future session starts
// layer their overrides onto. Running sessions keep the configuration
// they started with.
func (m *Manager) SetBase(base *config.Config) {
	m.mu.Lock()
	m.base = base
	m.mu.Unlock()
}

// Create registers a new idle session. override may be nil; non-zero
// fields layer over the process configuration when the session starts.
func (m *Manager) Create(ctx context.Context, name string, override *config.Config) (*store.SessionRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("session name is required")
	}

	var raw []byte
	if override != nil {
		data, err := yaml.Marshal(override)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize session config: %w", err)
		}
		raw = data
	}

	record := &store.SessionRecord{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    store.SessionStatusIdle,
		Config:    raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.st.SaveSession(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Info("Session created", "session_id", record.ID, "name", name)
	return record, nil
}

// Get fetches a session record.
func (m *Manager) Get(ctx context.Context, id string) (*store.SessionRecord, error) {
	return m.st.GetSession(ctx, id)
}

// List returns all session records.
func (m *Manager) List(ctx context.Context) ([]store.SessionRecord, error) {
	return m.st.ListSessions(ctx)
}

// Delete removes a stopped session and its record. A running session must
// be stopped first.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, running := m.active[id]
	m.mu.Unlock()
	if running {
		return ErrAlreadyRunning
	}
	return m.st.DeleteSession(ctx, id)
}

// Start launches a bot run for the session. The run proceeds in its own
// goroutine until the bid cap is reached or Stop is called.
func (m *Manager) Start(ctx context.Context, id string) error {
	record, err := m.st.GetSession(ctx, id)
	if err != nil {
		return err
	}

	effective, err := m.effectiveConfig(record)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, running := m.active[id]; running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}

	runner, err := m.factory(effective, id)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to build session runner: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	live := &liveRun{
		runner: runner,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.active[id] = live
	m.mu.Unlock()

	now := time.Now().UTC()
	record.Status = store.SessionStatusRunning
	record.StartedAt = &now
	record.StoppedAt = nil
	if err := m.st.SaveSession(ctx, record); err != nil {
		m.logger.Warn("Failed to persist session start", "session_id", id, "error", err)
	}

	m.logger.Info("Session starting", "session_id", id, "name", record.Name)
	go m.run(runCtx, id, live)
	return nil
}

// run executes the session's bot and settles the record when it ends.
func (m *Manager) run(runCtx context.Context, id string, live *liveRun) {
	defer close(live.done)

	err := live.runner.Run(runCtx)
	status := live.runner.Status()

	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()

	final := store.SessionStatusStopped
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		final = store.SessionStatusError
		m.logger.Error("Session run failed", "session_id", id, "error", err)
	} else {
		m.logger.Info("Session run ended",
			"session_id", id,
			"bids_attempted", status.BidsAttempted,
			"bids_placed", status.BidsPlaced)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	record, getErr := m.st.GetSession(ctx, id)
	if getErr != nil {
		m.logger.Warn("Failed to load session for settlement", "session_id", id, "error", getErr)
		return
	}
	now := time.Now().UTC()
	record.Status = final
	record.StoppedAt = &now
	record.ProjectsProcessed = status.ProcessedProjects
	record.BidsPlaced = status.BidsPlaced
	record.Errors = status.BidsFailed
	if saveErr := m.st.SaveSession(ctx, record); saveErr != nil {
		m.logger.Warn("Failed to persist session settlement", "session_id", id, "error", saveErr)
	}
}

// Stop cancels a running session and waits for its goroutine to settle.
func (m *Manager) Stop(ctx context.Context, id string) error {
	m.mu.Lock()
	live, running := m.active[id]
	m.mu.Unlock()
	if !running {
		return ErrNotRunning
	}

	live.cancel()
	select {
	case <-live.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAll cancels every running session. Used at process shutdown.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	lives := make([]*liveRun, 0, len(m.active))
	for _, live := range m.active {
		lives = append(lives, live)
	}
	m.mu.Unlock()

	for _, live := range lives {
		live.cancel()
	}
	for _, live := range lives {
		select {
		case <-live.done:
		case <-ctx.Done():
			return
		}
	}
}

// Status returns the live run status for a running session, or false when
// the session is not running.
func (m *Manager) Status(id string) (bot.Status, bool) {
	m.mu.Lock()
	live, running := m.active[id]
	m.mu.Unlock()
	if !running {
		return bot.Status{}, false
	}
	return live.runner.Status(), true
}

// Statistics aggregates a session's persisted outcomes.
type Statistics struct {
	SessionID         string  `json:"session_id"`
	ProjectsEvaluated int     `json:"projects_evaluated"`
	BidsPlaced        int     `json:"bids_placed"`
	BidsFailed        int     `json:"bids_failed"`
	DryRunBids        int     `json:"dry_run_bids"`
	TotalBidValue     float64 `json:"total_bid_value"`
}

// Statistics computes aggregate counts from the session's stored records.
func (m *Manager) Statistics(ctx context.Context, id string) (*Statistics, error) {
	if _, err := m.st.GetSession(ctx, id); err != nil {
		return nil, err
	}

	projects, err := m.st.ListProjects(ctx, id)
	if err != nil {
		return nil, err
	}
	bids, err := m.st.ListBids(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		SessionID:         id,
		ProjectsEvaluated: len(projects),
	}
	for _, bid := range bids {
		switch bid.Status {
		case store.BidStatusPlaced:
			stats.BidsPlaced++
			stats.TotalBidValue += bid.Amount
		case store.BidStatusFailed:
			stats.BidsFailed++
		case store.BidStatusDryRun:
			stats.DryRunBids++
		}
	}
	return stats, nil
}

// effectiveConfig layers the session's stored overrides onto a copy of the
// process configuration.
func (m *Manager) effectiveConfig(record *store.SessionRecord) (*config.Config, error) {
	m.mu.Lock()
	effective := *m.base
	m.mu.Unlock()
	if len(record.Config) == 0 {
		return &effective, nil
	}

	override := &config.Config{}
	if err := yaml.Unmarshal(record.Config, override); err != nil {
		return nil, fmt.Errorf("failed to parse session config: %w", err)
	}
	effective.Merge(override)
	return &effective, nil
}

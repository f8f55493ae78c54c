package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/bidflow/config"
	"github.com/c360studio/bidflow/marketplace"
	"github.com/c360studio/bidflow/store"
)

// Deps are the external collaborators of one bot run. In production all
// four are the marketplace session and the completion client; tests
// substitute fakes per interface.
type Deps struct {
	Source    ProjectSource
	Directory ProjectDirectory
	Bidder    Bidder
	Generator Generator
}

// Bot runs the bidding pipeline: poll, filter, qualify, price, compose,
// submit, until the bid attempt cap is reached or the context ends. All
// run state is owned by the loop; the mutex exists only so Status can be
// read from other goroutines.
type Bot struct {
	source  ProjectSource
	bidder  Bidder
	search  marketplace.SearchFilter
	filter  *Filter
	qual    *Qualifier
	est     *Estimator
	comp    *Composer
	cfg     config.BotConfig
	logger  *slog.Logger
	metrics *Metrics

	st        store.Store
	sessionID string

	mu        sync.Mutex
	processed map[int64]struct{}
	attempts  int
	placed    int
	failed    int
	selfID    int64
	lastCycle time.Time
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(b *Bot) { b.metrics = m }
}

// WithStore persists run artifacts under the given session ID.
func WithStore(st store.Store, sessionID string) Option {
	return func(b *Bot) {
		b.st = st
		b.sessionID = sessionID
	}
}

// New creates a Bot from its collaborators and configuration. The pipeline
// stages are built here so callers wire only the external boundaries.
func New(deps Deps, cfg *config.Config, opts ...Option) *Bot {
	b := &Bot{
		source: deps.Source,
		bidder: deps.Bidder,
		search: marketplace.SearchFilter{
			SkillIDs:      cfg.Filter.SkillIDs,
			LanguageCodes: cfg.Filter.LanguageCodes,
		},
		cfg:       cfg.Bot,
		logger:    slog.Default(),
		processed: make(map[int64]struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	prompts := NewPrompts(cfg.Proposal, cfg.Pricing)
	b.filter = NewFilter(deps.Directory, cfg.Filter, b.logger, b.metrics)
	b.qual = NewQualifier(deps.Generator, prompts, b.logger, b.metrics)
	b.est = NewEstimator(deps.Generator, prompts, cfg.Pricing, b.logger, b.metrics)
	b.comp = NewComposer(deps.Generator, prompts, b.logger, b.metrics)

	return b
}

// Status is a point-in-time snapshot of the run.
type Status struct {
	ProcessedProjects int       `json:"processed_projects"`
	BidsAttempted     int       `json:"bids_attempted"`
	BidsPlaced        int       `json:"bids_placed"`
	BidsFailed        int       `json:"bids_failed"`
	BidLimit          int       `json:"bid_limit"`
	LastCycle         time.Time `json:"last_cycle,omitempty"`
}

// Status returns a snapshot of the run's counters. Safe to call from any
// goroutine while Run is active.
func (b *Bot) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		ProcessedProjects: len(b.processed),
		BidsAttempted:     b.attempts,
		BidsPlaced:        b.placed,
		BidsFailed:        b.failed,
		BidLimit:          b.cfg.BidLimit,
		LastCycle:         b.lastCycle,
	}
}

// Run executes polling cycles until the bid attempt cap is reached. It
// returns nil on normal termination and the context error if cancelled
// mid-run. Fetch failures are retried indefinitely after a backoff; every
// other failure is contained to the project it concerns.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Bidding run starting",
		"bid_limit", b.cfg.BidLimit,
		"dry_run", b.cfg.DryRun)
	b.activity(ctx, store.ActivityInfo, fmt.Sprintf("run started (bid limit %d)", b.cfg.BidLimit), 0)

	for {
		if b.capReached() {
			break
		}

		placed, err := b.cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("Project fetch failed, backing off",
				"error", err,
				"backoff", b.cfg.FetchBackoff)
			if !sleep(ctx, b.cfg.FetchBackoff) {
				return ctx.Err()
			}
			continue
		}

		if b.capReached() {
			break
		}

		pause := b.cfg.IdleInterval
		if placed > 0 {
			pause = b.cfg.CycleInterval
		}
		if !sleep(ctx, pause) {
			return ctx.Err()
		}
	}

	status := b.Status()
	b.logger.Info("Bidding run finished",
		"bids_attempted", status.BidsAttempted,
		"bids_placed", status.BidsPlaced,
		"projects_processed", status.ProcessedProjects)
	b.activity(ctx, store.ActivityInfo,
		fmt.Sprintf("run finished: %d attempts, %d placed", status.BidsAttempted, status.BidsPlaced), 0)
	return nil
}

// cycle runs one poll-to-submit pass and reports how many bids it placed.
// The returned error is only ever a fetch failure.
func (b *Bot) cycle(ctx context.Context) (int, error) {
	batch, err := b.source.SearchProjects(ctx, b.search, b.cfg.SearchLimit, 0)
	if err != nil {
		return 0, err
	}
	if b.metrics != nil {
		b.metrics.ProjectsFetched.Add(float64(len(batch)))
		b.metrics.Cycles.Inc()
	}

	fresh := b.claimNew(batch)
	b.mu.Lock()
	b.lastCycle = time.Now()
	b.mu.Unlock()

	if len(fresh) == 0 {
		return 0, nil
	}
	b.logger.Debug("Polling cycle",
		"fetched", len(batch),
		"new", len(fresh))

	drafts := b.prepare(ctx, b.filter.Apply(ctx, fresh))
	return b.submitAll(ctx, drafts), nil
}

// claimNew partitions the batch into unseen projects and marks every one
// of them processed immediately, before any filtering, so a project is
// evaluated exactly once across the whole run.
func (b *Bot) claimNew(batch []marketplace.RawProject) []marketplace.RawProject {
	b.mu.Lock()
	defer b.mu.Unlock()

	fresh := make([]marketplace.RawProject, 0, len(batch))
	for _, p := range batch {
		if _, seen := b.processed[p.ID]; seen {
			continue
		}
		b.processed[p.ID] = struct{}{}
		fresh = append(fresh, p)
	}
	return fresh
}

// prepare qualifies, prices and composes each eligible project into a
// BidDraft. A declined or failed project drops out; the rest of the batch
// continues.
func (b *Bot) prepare(ctx context.Context, eligible []EnrichedProject) []BidDraft {
	drafts := make([]BidDraft, 0, len(eligible))
	for _, project := range eligible {
		if ctx.Err() != nil {
			return drafts
		}
		b.recordProject(ctx, project)

		if !b.qual.Qualify(ctx, project) {
			continue
		}

		pricing := b.est.Estimate(ctx, project)
		content := b.comp.Compose(ctx, project)

		drafts = append(drafts, BidDraft{
			Project:    project,
			Content:    content,
			Amount:     pricing.Amount,
			PeriodDays: pricing.PeriodDays,
			Currency:   project.Currency,
		})
	}
	return drafts
}

// submitAll places drafts one at a time, pacing between submissions, and
// reports how many were accepted. The attempt cap is re-checked before
// every placement.
func (b *Bot) submitAll(ctx context.Context, drafts []BidDraft) int {
	placed := 0
	for i, draft := range drafts {
		if ctx.Err() != nil || b.capReached() {
			break
		}
		if i > 0 {
			if !sleep(ctx, b.cfg.SubmitInterval) {
				break
			}
		}
		if b.submit(ctx, draft) {
			placed++
		}
	}
	return placed
}

// submit places one bid. Identity-resolution failure aborts before the
// placement call and does not consume an attempt; once PlaceBid is
// invoked, the attempt counts whatever the outcome.
func (b *Bot) submit(ctx context.Context, draft BidDraft) bool {
	b.waitMinAge(ctx, draft.Project)
	if ctx.Err() != nil {
		return false
	}

	bidderID, err := b.resolveSelf(ctx)
	if err != nil {
		b.logger.Error("Identity resolution failed, bid not attempted",
			"project_id", draft.Project.ID,
			"error", err)
		b.activity(ctx, store.ActivityError,
			fmt.Sprintf("identity resolution failed: %v", err), draft.Project.ID)
		return false
	}

	if b.cfg.DryRun {
		b.countAttempt(false)
		b.logger.Info("Dry run: bid not placed",
			"project_id", draft.Project.ID,
			"amount", draft.Amount,
			"currency", draft.Currency,
			"period_days", draft.PeriodDays)
		b.recordBid(ctx, draft, store.BidStatusDryRun, "")
		return false
	}

	bid, err := b.bidder.PlaceBid(ctx, marketplace.BidRequest{
		ProjectID:   draft.Project.ID,
		BidderID:    bidderID,
		Amount:      draft.Amount,
		Period:      draft.PeriodDays,
		Description: draft.Content,
	})
	if err != nil {
		b.countAttempt(false)
		b.failedInc()
		if b.metrics != nil {
			b.metrics.BidsFailed.Inc()
		}
		b.logger.Error("Bid placement failed",
			"project_id", draft.Project.ID,
			"amount", draft.Amount,
			"error", err)
		b.recordBid(ctx, draft, store.BidStatusFailed, err.Error())
		b.activity(ctx, store.ActivityError,
			fmt.Sprintf("bid placement failed: %v", err), draft.Project.ID)
		return false
	}

	b.countAttempt(true)
	if b.metrics != nil {
		b.metrics.BidsPlaced.Inc()
	}
	b.logger.Info("Bid placed",
		"project_id", draft.Project.ID,
		"bid_id", bid.ID,
		"amount", draft.Amount,
		"currency", draft.Currency,
		"period_days", draft.PeriodDays,
		"link", draft.Project.Link())
	b.recordBid(ctx, draft, store.BidStatusPlaced, "")
	b.activity(ctx, store.ActivityInfo,
		fmt.Sprintf("bid placed: %.0f %s over %d days", draft.Amount, draft.Currency, draft.PeriodDays),
		draft.Project.ID)

	// Sealing hides the bid from competitors. Best effort: a failed seal
	// leaves a perfectly valid public bid in place.
	if err := b.bidder.SealBid(ctx, bid.ID); err != nil {
		b.logger.Warn("Bid seal failed",
			"bid_id", bid.ID,
			"project_id", draft.Project.ID,
			"error", err)
	}

	return true
}

// waitMinAge holds submission until the listing is old enough. Bidding
// within seconds of posting looks automated and gets flagged.
func (b *Bot) waitMinAge(ctx context.Context, project EnrichedProject) {
	if b.cfg.MinProjectAge <= 0 || project.SubmitTime.IsZero() {
		return
	}
	age := time.Since(project.SubmitTime)
	if age >= b.cfg.MinProjectAge {
		return
	}
	remaining := b.cfg.MinProjectAge - age
	b.logger.Debug("Waiting for minimum project age",
		"project_id", project.ID,
		"wait", remaining)
	sleep(ctx, remaining)
}

// resolveSelf returns the authenticated user's ID, resolving it on first
// use and caching it for the rest of the run.
func (b *Bot) resolveSelf(ctx context.Context) (int64, error) {
	b.mu.Lock()
	cached := b.selfID
	b.mu.Unlock()
	if cached != 0 {
		return cached, nil
	}

	id, err := b.bidder.SelfUserID(ctx)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	b.selfID = id
	b.mu.Unlock()
	return id, nil
}

func (b *Bot) capReached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts >= b.cfg.BidLimit
}

func (b *Bot) countAttempt(placed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	if placed {
		b.placed++
	}
}

func (b *Bot) failedInc() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed++
}

// recordProject persists an evaluated project when a store is configured.
func (b *Bot) recordProject(ctx context.Context, project EnrichedProject) {
	if b.st == nil {
		return
	}
	record := &store.ProjectRecord{
		ProjectID:     project.ID,
		SessionID:     b.sessionID,
		Title:         project.Title,
		Description:   project.Description,
		OwnerID:       project.OwnerID,
		MinimumBudget: project.MinimumBudget,
		MaximumBudget: project.MaximumBudget,
		Currency:      project.Currency,
		Type:          project.Type,
		ExchangeRate:  project.ExchangeRate,
		SEOURL:        project.SEOURL,
		CreatedAt:     time.Now().UTC(),
	}
	if err := b.st.SaveProject(ctx, record); err != nil {
		b.logger.Warn("Failed to persist project record",
			"project_id", project.ID,
			"error", err)
	}
}

// recordBid persists a bid outcome when a store is configured.
func (b *Bot) recordBid(ctx context.Context, draft BidDraft, status, errMsg string) {
	if b.st == nil {
		return
	}
	record := &store.BidRecord{
		ID:         fmt.Sprintf("%s-%d", b.sessionID, draft.Project.ID),
		SessionID:  b.sessionID,
		ProjectID:  draft.Project.ID,
		Title:      draft.Project.Title,
		Amount:     draft.Amount,
		PeriodDays: draft.PeriodDays,
		Currency:   draft.Currency,
		Content:    draft.Content,
		Status:     status,
		Error:      errMsg,
		PlacedAt:   time.Now().UTC(),
	}
	if err := b.st.SaveBid(ctx, record); err != nil {
		b.logger.Warn("Failed to persist bid record",
			"project_id", draft.Project.ID,
			"error", err)
	}
}

// activity appends a session activity entry when a store is configured.
func (b *Bot) activity(ctx context.Context, level, message string, projectID int64) {
	if b.st == nil {
		return
	}
	if err := b.st.AppendActivity(ctx, store.NewActivityEntry(b.sessionID, level, message, projectID)); err != nil {
		b.logger.Warn("Failed to persist activity entry", "error", err)
	}
}

// sleep waits for d or until the context ends, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

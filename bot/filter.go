package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/bidflow/config"
	"github.com/c360studio/bidflow/marketplace"
)

// SkipReason classifies why the filter rejected a project.
type SkipReason string

const (
	SkipExcludedCountry   SkipReason = "excluded_country"
	SkipExcludedCurrency  SkipReason = "excluded_currency"
	SkipNDARequired       SkipReason = "nda_required"
	SkipInactive          SkipReason = "inactive"
	SkipOwnerLookupFailed SkipReason = "owner_lookup_failed"
	SkipEnrichmentFailed  SkipReason = "enrichment_failed"
	SkipBudgetTooLow      SkipReason = "budget_too_low"
)

// Filter removes ineligible projects and upgrades survivors to
// EnrichedProject. Predicates run in a fixed order and short-circuit per
// project; lookup failures drop that project only, never the batch.
type Filter struct {
	directory          ProjectDirectory
	normalizer         *Normalizer
	excludedCountries  map[string]struct{}
	excludedCurrencies map[string]struct{}
	minFixedBudget     float64
	logger             *slog.Logger
	metrics            *Metrics
}

// NewFilter creates an eligibility filter from the filter configuration.
func NewFilter(directory ProjectDirectory, cfg config.FilterConfig, logger *slog.Logger, metrics *Metrics) *Filter {
	if logger == nil {
		logger = slog.Default()
	}

	countries := make(map[string]struct{}, len(cfg.ExcludedCountries))
	for _, c := range cfg.ExcludedCountries {
		countries[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	currencies := make(map[string]struct{}, len(cfg.ExcludedCurrencies))
	for _, c := range cfg.ExcludedCurrencies {
		currencies[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}

	return &Filter{
		directory:          directory,
		normalizer:         NewNormalizer(),
		excludedCountries:  countries,
		excludedCurrencies: currencies,
		minFixedBudget:     cfg.MinFixedBudget,
		logger:             logger,
		metrics:            metrics,
	}
}

// Apply returns the eligible subset of the batch as EnrichedProjects.
func (f *Filter) Apply(ctx context.Context, projects []marketplace.RawProject) []EnrichedProject {
	eligible := make([]EnrichedProject, 0, len(projects))

	for _, p := range projects {
		enriched, reason := f.inspect(ctx, p)
		if reason != "" {
			f.logger.Debug("Project rejected",
				"project_id", p.ID,
				"title", p.Title,
				"reason", reason)
			if f.metrics != nil {
				f.metrics.ProjectsSkipped.WithLabelValues(string(reason)).Inc()
			}
			continue
		}
		eligible = append(eligible, *enriched)
	}

	return eligible
}

// inspect evaluates one project. It returns the enriched project, or the
// reason it was rejected.
func (f *Filter) inspect(ctx context.Context, p marketplace.RawProject) (*EnrichedProject, SkipReason) {
	// Owner country check runs first: a client in an excluded country
	// disqualifies the listing whatever else it says.
	owner, err := f.directory.UserByID(ctx, p.OwnerID)
	if err != nil {
		f.logger.Warn("Owner lookup failed, skipping project",
			"project_id", p.ID,
			"owner_id", p.OwnerID,
			"error", err)
		return nil, SkipOwnerLookupFailed
	}
	country := strings.ToLower(strings.TrimSpace(owner.Location.Country.Name))
	if _, excluded := f.excludedCountries[country]; excluded {
		return nil, SkipExcludedCountry
	}

	if _, excluded := f.excludedCurrencies[strings.ToUpper(p.Currency.Code)]; excluded {
		return nil, SkipExcludedCurrency
	}

	if p.Upgrades.NDA {
		return nil, SkipNDARequired
	}

	if !strings.EqualFold(p.Status, marketplace.ProjectStatusActive) {
		return nil, SkipInactive
	}

	detail, err := f.directory.ProjectDetails(ctx, p.ID)
	if err != nil {
		f.logger.Warn("Enrichment lookup failed, skipping project",
			"project_id", p.ID,
			"error", err)
		return nil, SkipEnrichmentFailed
	}

	if p.Type == marketplace.ProjectTypeFixed && detail.Budget.Maximum <= f.minFixedBudget {
		return nil, SkipBudgetTooLow
	}

	title := detail.Title
	if title == "" {
		title = p.Title
	}
	description := detail.Description
	if description == "" {
		description = p.PreviewDescription
	}

	var submitTime time.Time
	if p.SubmitDate > 0 {
		submitTime = time.Unix(p.SubmitDate, 0)
	}

	return &EnrichedProject{
		ID:            p.ID,
		OwnerID:       p.OwnerID,
		Title:         title,
		Description:   f.normalizer.Normalize(description),
		MinimumBudget: detail.Budget.Minimum,
		MaximumBudget: detail.Budget.Maximum,
		Currency:      p.Currency.Code,
		Type:          strings.ToLower(p.Type),
		ExchangeRate:  p.Currency.ExchangeRate,
		SubmitTime:    submitTime,
		SEOURL:        p.SEOURL,
	}, ""
}

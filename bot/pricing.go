package bot

import (
	"context"
	"log/slog"

	"github.com/c360studio/bidflow/config"
)

// Default periods when no model estimate applies. Hourly listings get a
// long standing period; fixed listings falling back to arithmetic pricing
// get a short one.
const (
	hourlyPeriodDays   = 40
	fallbackPeriodDays = 7
)

// Estimator derives a bid amount and period for a qualified project. Fixed
// listings get a model estimate with deterministic arithmetic as the
// fallback; hourly listings are priced at the budget midpoint without a
// model call, since the model cannot improve on a rate the client already
// bounded.
type Estimator struct {
	generator    Generator
	prompts      *Prompts
	floorUSD     float64
	flatFallback float64
	logger       *slog.Logger
	metrics      *Metrics
}

// NewEstimator creates a pricing estimator from the pricing configuration.
func NewEstimator(generator Generator, prompts *Prompts, cfg config.PricingConfig, logger *slog.Logger, metrics *Metrics) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{
		generator:    generator,
		prompts:      prompts,
		floorUSD:     cfg.FloorUSD,
		flatFallback: cfg.FlatFallback,
		logger:       logger,
		metrics:      metrics,
	}
}

// Estimate derives the bid amount, in the listing currency, and the bid
// period in days.
func (e *Estimator) Estimate(ctx context.Context, project EnrichedProject) PricingResult {
	if !project.IsFixed() {
		return PricingResult{
			ProjectID:  project.ID,
			Amount:     (project.MinimumBudget + project.MaximumBudget) / 2,
			PeriodDays: hourlyPeriodDays,
		}
	}

	response, err := e.generator.Generate(ctx, e.prompts.PricingSystem(), e.prompts.PricingUser(project))
	if err != nil {
		e.logger.Warn("Pricing generation failed, using fallback estimate",
			"project_id", project.ID,
			"error", err)
		if e.metrics != nil {
			e.metrics.GenerationErrors.WithLabelValues("estimate").Inc()
		}
		return e.fallback(project)
	}

	estimate, ok := ParseBudgetDeadline(response)
	if !ok {
		e.logger.Warn("Pricing response unparseable, using fallback estimate",
			"project_id", project.ID,
			"response", truncate(response, 120))
		return e.fallback(project)
	}

	return PricingResult{
		ProjectID:  project.ID,
		Amount:     e.toListingCurrency(float64(estimate.BudgetUSD), project.ExchangeRate),
		PeriodDays: estimate.PeriodDays,
		FromModel:  true,
	}
}

// fallback prices a fixed listing from its budget bounds alone.
func (e *Estimator) fallback(project EnrichedProject) PricingResult {
	amount := project.MinimumBudget + project.MaximumBudget/1.5
	if amount < e.floorUSD {
		amount = e.floorUSD
	}
	return PricingResult{
		ProjectID:  project.ID,
		Amount:     amount,
		PeriodDays: fallbackPeriodDays,
	}
}

// toListingCurrency converts a USD estimate into the listing currency,
// applying the configured floor first. A missing exchange rate yields the
// flat fallback amount; it cannot be converted at all.
func (e *Estimator) toListingCurrency(usd, rate float64) float64 {
	if usd < e.floorUSD {
		usd = e.floorUSD
	}
	if rate == 0 {
		return e.flatFallback
	}
	return usd / rate
}

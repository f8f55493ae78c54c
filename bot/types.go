// Package bot implements the bidding pipeline: poll the project feed,
// filter ineligible listings, qualify candidates against the service
// catalog, derive a price and deadline, compose bid copy, and submit bids
// up to a configured cap. The orchestrator owns all run state; every
// external call is isolated so one bad project or one model hiccup never
// halts the run.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/c360studio/bidflow/marketplace"
)

// Generator produces text from a system/user prompt pair. Implemented by
// llm.Client; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// ProjectDirectory resolves full project records and owner details.
// Implemented by marketplace.Session.
type ProjectDirectory interface {
	ProjectDetails(ctx context.Context, projectID int64) (*marketplace.ProjectDetail, error)
	UserByID(ctx context.Context, userID int64) (*marketplace.User, error)
}

// ProjectSource returns a page of candidate projects. Implemented by
// marketplace.Session.
type ProjectSource interface {
	SearchProjects(ctx context.Context, filter marketplace.SearchFilter, limit, offset int) ([]marketplace.RawProject, error)
}

// Bidder places and seals bids. Implemented by marketplace.Session.
type Bidder interface {
	SelfUserID(ctx context.Context) (int64, error)
	PlaceBid(ctx context.Context, req marketplace.BidRequest) (*marketplace.Bid, error)
	SealBid(ctx context.Context, bidID int64) error
}

// EnrichedProject is a listing that passed the eligibility filter,
// upgraded with the full description and final budget bounds. It is never
// mutated after the filter builds it.
type EnrichedProject struct {
	ID            int64
	OwnerID       int64
	Title         string
	Description   string
	MinimumBudget float64
	MaximumBudget float64
	Currency      string
	Type          string
	ExchangeRate  float64
	SubmitTime    time.Time
	SEOURL        string
}

// IsFixed reports whether this is a fixed-price listing.
func (p EnrichedProject) IsFixed() bool {
	return p.Type == marketplace.ProjectTypeFixed
}

// Link returns the listing's public URL for diagnostics.
func (p EnrichedProject) Link() string {
	if p.SEOURL != "" {
		return fmt.Sprintf("https://www.freelancer.com/projects/%s/details", p.SEOURL)
	}
	return fmt.Sprintf("https://www.freelancer.com/projects/%d", p.ID)
}

// PricingResult is the derived bid amount and period for a qualified
// project. Amount is in the project's listing currency.
type PricingResult struct {
	ProjectID  int64
	Amount     float64
	PeriodDays int

	// FromModel is true when the amount came from a parsed model estimate
	// rather than the deterministic fallback rules.
	FromModel bool
}

// BidDraft is a fully composed, priced proposal ready for submission.
type BidDraft struct {
	Project    EnrichedProject
	Content    string
	Amount     float64
	PeriodDays int
	Currency   string
}

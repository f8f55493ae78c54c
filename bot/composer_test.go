package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/bidflow/config"
)

func newTestComposer(gen Generator) *Composer {
	cfg := config.DefaultConfig()
	cfg.Proposal.Signature = "Test Studio"
	cfg.Proposal.PortfolioLinks = []config.PortfolioLink{
		{Label: "Storefront build", URL: "https://example.com/work/store"},
	}
	return NewComposer(gen, NewPrompts(cfg.Proposal, cfg.Pricing), nil, nil)
}

func TestComposeReturnsGeneratedCopy(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"Your shop deserves a fast launch."}}
	c := newTestComposer(gen)

	got := c.Compose(context.Background(), EnrichedProject{ID: 1, Title: "t", Description: "d"})
	assert.Equal(t, "Your shop deserves a fast launch.", got)
}

func TestComposeFailureYieldsEmptyDraft(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{""},
		errs:      []error{errors.New("model unavailable")},
	}
	c := newTestComposer(gen)

	got := c.Compose(context.Background(), EnrichedProject{ID: 1, Title: "t", Description: "d"})
	assert.Empty(t, got)
}

func TestComposeSystemPromptCarriesSignatureAndPortfolio(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"copy"}}
	c := newTestComposer(gen)

	c.Compose(context.Background(), EnrichedProject{ID: 1, Title: "t", Description: "d"})

	assert.Len(t, gen.systems, 1)
	assert.Contains(t, gen.systems[0], "Test Studio")
	assert.NotContains(t, gen.systems[0], "{signature}")
	assert.Contains(t, gen.systems[0], "https://example.com/work/store")
}

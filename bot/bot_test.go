package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/bidflow/config"
	"github.com/c360studio/bidflow/marketplace"
	"github.com/c360studio/bidflow/store"
)

// routingGenerator answers by pipeline stage, recognized from the system
// prompt, so multi-project runs do not depend on call ordering.
type routingGenerator struct {
	matchAnswer string
	priceAnswer string
	copyAnswer  string
	composeErr  error
}

func (g *routingGenerator) Generate(_ context.Context, system, _ string) (string, error) {
	switch {
	case strings.Contains(system, "qualifier"):
		return g.matchAnswer, nil
	case strings.Contains(system, "pricing analyst"):
		return g.priceAnswer, nil
	default:
		if g.composeErr != nil {
			return "", g.composeErr
		}
		return g.copyAnswer, nil
	}
}

func newRoutingGenerator() *routingGenerator {
	return &routingGenerator{
		matchAnswer: "MATCH",
		priceAnswer: "Budget: 600 USD, Deadline: 10 days",
		copyAnswer:  "A confident proposal.",
	}
}

// testBotConfig returns a config with all pacing intervals collapsed so
// runs complete immediately.
func testBotConfig(bidLimit int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Bot.BidLimit = bidLimit
	cfg.Bot.MinProjectAge = 0
	cfg.Bot.SubmitInterval = 0
	cfg.Bot.CycleInterval = 0
	cfg.Bot.IdleInterval = 0
	cfg.Bot.FetchBackoff = 0
	return cfg
}

// eligibleDirectory serves every owner from Germany and every detail with
// a 100-600 budget.
func eligibleDirectory(projectIDs ...int64) *fakeDirectory {
	dir := &fakeDirectory{
		users:   map[int64]*marketplace.User{7: owner(7, "Germany")},
		details: make(map[int64]*marketplace.ProjectDetail),
	}
	for _, id := range projectIDs {
		dir.details[id] = detail(id, 100, 600)
	}
	return dir
}

func TestRunPlacesBidAndSeals(t *testing.T) {
	source := &fakeSource{batches: [][]marketplace.RawProject{
		{rawProject(1, 7)},
	}}
	bidder := &fakeBidder{selfID: 99}

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1),
		Bidder:    bidder,
		Generator: newRoutingGenerator(),
	}, testBotConfig(1))

	err := b.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, bidder.placed, 1)
	placed := bidder.placed[0]
	assert.Equal(t, int64(1), placed.ProjectID)
	assert.Equal(t, int64(99), placed.BidderID)
	assert.InDelta(t, 600.0, placed.Amount, 1e-9)
	assert.Equal(t, 10, placed.Period)
	assert.Equal(t, "A confident proposal.", placed.Description)
	assert.Len(t, bidder.sealed, 1)

	status := b.Status()
	assert.Equal(t, 1, status.BidsAttempted)
	assert.Equal(t, 1, status.BidsPlaced)
}

func TestRunDeduplicatesAcrossCycles(t *testing.T) {
	// Project 1 appears in both cycles; project 2 only in the second.
	source := &fakeSource{batches: [][]marketplace.RawProject{
		{rawProject(1, 7)},
		{rawProject(1, 7), rawProject(2, 7)},
	}}
	bidder := &fakeBidder{selfID: 99}

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1, 2),
		Bidder:    bidder,
		Generator: newRoutingGenerator(),
	}, testBotConfig(2))

	err := b.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, bidder.placed, 2)
	assert.Equal(t, int64(1), bidder.placed[0].ProjectID)
	assert.Equal(t, int64(2), bidder.placed[1].ProjectID)
	assert.Equal(t, 2, b.Status().ProcessedProjects)
}

func TestRunRejectedProjectIsNotReevaluated(t *testing.T) {
	// Project 1 is NDA-gated and appears in both cycles; the second cycle
	// must not look it up again.
	nda := rawProject(1, 7)
	nda.Upgrades.NDA = true
	source := &fakeSource{batches: [][]marketplace.RawProject{
		{nda},
		{nda, rawProject(2, 7)},
	}}
	bidder := &fakeBidder{selfID: 99}

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1, 2),
		Bidder:    bidder,
		Generator: newRoutingGenerator(),
	}, testBotConfig(1))

	err := b.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, bidder.placed, 1)
	assert.Equal(t, int64(2), bidder.placed[0].ProjectID)
	assert.Equal(t, 2, b.Status().ProcessedProjects)
}

func TestRunFailedAttemptsConsumeTheCap(t *testing.T) {
	// Five drafts, cap of three, placements on projects 2 and 3 rejected:
	// exactly three attempts happen, then the run terminates.
	source := &fakeSource{batches: [][]marketplace.RawProject{
		{rawProject(1, 7), rawProject(2, 7), rawProject(3, 7), rawProject(4, 7), rawProject(5, 7)},
	}}
	bidder := &fakeBidder{
		selfID: 99,
		failOn: map[int64]bool{2: true, 3: true},
	}

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1, 2, 3, 4, 5),
		Bidder:    bidder,
		Generator: newRoutingGenerator(),
	}, testBotConfig(3))

	err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, bidder.placed, 3)
	status := b.Status()
	assert.Equal(t, 3, status.BidsAttempted)
	assert.Equal(t, 1, status.BidsPlaced)
	assert.Equal(t, 2, status.BidsFailed)
}

func TestRunIdentityFailureDoesNotConsumeAttempts(t *testing.T) {
	source := &fakeSource{batches: [][]marketplace.RawProject{
		{rawProject(1, 7)},
	}}
	bidder := &fakeBidder{selfErr: errors.New("auth expired")}

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1),
		Bidder:    bidder,
		Generator: newRoutingGenerator(),
	}, testBotConfig(1))

	// The cap can never be reached, so the run only ends with the context.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := b.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, bidder.placed)
	assert.Zero(t, b.Status().BidsAttempted)
}

func TestRunRetriesAfterFetchFailure(t *testing.T) {
	source := &fakeSource{
		batches: [][]marketplace.RawProject{
			nil,
			{rawProject(1, 7)},
		},
		errs: []error{errors.New("feed unavailable"), nil},
	}
	bidder := &fakeBidder{selfID: 99}

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1),
		Bidder:    bidder,
		Generator: newRoutingGenerator(),
	}, testBotConfig(1))

	err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, bidder.placed, 1)
	assert.Equal(t, 2, source.calls)
}

func TestRunDryRunCountsAttemptsWithoutPlacing(t *testing.T) {
	source := &fakeSource{batches: [][]marketplace.RawProject{
		{rawProject(1, 7)},
	}}
	bidder := &fakeBidder{selfID: 99}

	cfg := testBotConfig(1)
	cfg.Bot.DryRun = true
	st := store.NewMemoryStore()

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1),
		Bidder:    bidder,
		Generator: newRoutingGenerator(),
	}, cfg, WithStore(st, "sess-1"))

	err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, bidder.placed)
	assert.Equal(t, 1, b.Status().BidsAttempted)

	bids, err := st.ListBids(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, store.BidStatusDryRun, bids[0].Status)
}

func TestRunEmptyComposedCopyStillSubmitted(t *testing.T) {
	gen := newRoutingGenerator()
	gen.composeErr = errors.New("model unavailable")

	source := &fakeSource{batches: [][]marketplace.RawProject{
		{rawProject(1, 7)},
	}}
	bidder := &fakeBidder{selfID: 99}

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1),
		Bidder:    bidder,
		Generator: gen,
	}, testBotConfig(1))

	err := b.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, bidder.placed, 1)
	assert.Empty(t, bidder.placed[0].Description)
}

func TestRunSealFailureDoesNotFailTheBid(t *testing.T) {
	source := &fakeSource{batches: [][]marketplace.RawProject{
		{rawProject(1, 7)},
	}}
	bidder := &fakeBidder{selfID: 99, sealErr: errors.New("seal rejected")}

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1),
		Bidder:    bidder,
		Generator: newRoutingGenerator(),
	}, testBotConfig(1))

	err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, b.Status().BidsPlaced)
}

func TestRunPersistsProjectAndBidRecords(t *testing.T) {
	source := &fakeSource{batches: [][]marketplace.RawProject{
		{rawProject(1, 7)},
	}}
	bidder := &fakeBidder{selfID: 99}
	st := store.NewMemoryStore()

	b := New(Deps{
		Source:    source,
		Directory: eligibleDirectory(1),
		Bidder:    bidder,
		Generator: newRoutingGenerator(),
	}, testBotConfig(1), WithStore(st, "sess-1"))

	err := b.Run(context.Background())
	require.NoError(t, err)

	projects, err := st.ListProjects(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, int64(1), projects[0].ProjectID)

	bids, err := st.ListBids(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, store.BidStatusPlaced, bids[0].Status)
	assert.InDelta(t, 600.0, bids[0].Amount, 1e-9)
}

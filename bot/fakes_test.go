package bot

import (
	"context"
	"errors"

	"github.com/c360studio/bidflow/marketplace"
)

// fakeGenerator scripts one response per call, in order. A call past the
// end of the script returns the last entry.
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
	systems   []string
	users     []string
}

func (g *fakeGenerator) Generate(_ context.Context, system, user string) (string, error) {
	g.systems = append(g.systems, system)
	g.users = append(g.users, user)
	i := g.calls
	g.calls++
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	if i < 0 {
		return "", errors.New("no scripted response")
	}
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	return g.responses[i], err
}

// fakeDirectory serves owner and detail lookups out of maps. A missing
// key yields an error, which the filter treats as a soft skip.
type fakeDirectory struct {
	users   map[int64]*marketplace.User
	details map[int64]*marketplace.ProjectDetail
}

func (d *fakeDirectory) UserByID(_ context.Context, id int64) (*marketplace.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, errors.New("user lookup failed")
	}
	return u, nil
}

func (d *fakeDirectory) ProjectDetails(_ context.Context, id int64) (*marketplace.ProjectDetail, error) {
	detail, ok := d.details[id]
	if !ok {
		return nil, errors.New("detail lookup failed")
	}
	return detail, nil
}

// fakeSource returns one scripted batch per cycle; cycles past the script
// return an empty batch.
type fakeSource struct {
	batches [][]marketplace.RawProject
	errs    []error
	calls   int
}

func (s *fakeSource) SearchProjects(_ context.Context, _ marketplace.SearchFilter, _, _ int) ([]marketplace.RawProject, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.batches) {
		return nil, nil
	}
	return s.batches[i], nil
}

// fakeBidder records placements and fails the ones listed in failOn.
type fakeBidder struct {
	selfID    int64
	selfErr   error
	failOn    map[int64]bool
	placed    []marketplace.BidRequest
	sealed    []int64
	sealErr   error
	nextBidID int64
}

func (b *fakeBidder) SelfUserID(_ context.Context) (int64, error) {
	if b.selfErr != nil {
		return 0, b.selfErr
	}
	return b.selfID, nil
}

func (b *fakeBidder) PlaceBid(_ context.Context, req marketplace.BidRequest) (*marketplace.Bid, error) {
	b.placed = append(b.placed, req)
	if b.failOn[req.ProjectID] {
		return nil, errors.New("placement rejected")
	}
	b.nextBidID++
	return &marketplace.Bid{ID: b.nextBidID, ProjectID: req.ProjectID}, nil
}

func (b *fakeBidder) SealBid(_ context.Context, bidID int64) error {
	b.sealed = append(b.sealed, bidID)
	return b.sealErr
}

// owner returns a user located in the given country.
func owner(id int64, country string) *marketplace.User {
	u := &marketplace.User{ID: id}
	u.Location.Country.Name = country
	return u
}

// rawProject builds an active fixed-price USD listing owned by ownerID.
func rawProject(id, ownerID int64) marketplace.RawProject {
	return marketplace.RawProject{
		ID:      id,
		OwnerID: ownerID,
		Title:   "Test project",
		Status:  marketplace.ProjectStatusActive,
		Type:    marketplace.ProjectTypeFixed,
		Currency: marketplace.Currency{
			Code:         "USD",
			ExchangeRate: 1.0,
		},
	}
}

// detail builds a project detail with the given budget bounds.
func detail(id int64, minBudget, maxBudget float64) *marketplace.ProjectDetail {
	return &marketplace.ProjectDetail{
		ID:          id,
		Title:       "Test project",
		Description: "A test project description.",
		Budget: marketplace.Budget{
			Minimum: minBudget,
			Maximum: maxBudget,
		},
	}
}

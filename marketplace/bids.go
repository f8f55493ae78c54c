package marketplace

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// PlaceBid submits a bid and returns the marketplace's bid record.
func (s *Session) PlaceBid(ctx context.Context, req BidRequest) (*Bid, error) {
	if req.MilestonePercentage == 0 {
		req.MilestonePercentage = 100
	}

	var result Bid
	if err := s.do(ctx, "POST", "/projects/0.1/bids/", nil, req, &result); err != nil {
		return nil, fmt.Errorf("place bid on project %d: %w", req.ProjectID, err)
	}

	return &result, nil
}

// SealBid hides a placed bid from competing bidders. Sealing is an upgrade
// applied after placement; callers treat failures as best-effort.
func (s *Session) SealBid(ctx context.Context, bidID int64) error {
	query := url.Values{}
	query.Set("action", "seal")

	path := "/projects/0.1/bids/" + strconv.FormatInt(bidID, 10) + "/"
	if err := s.do(ctx, "PUT", path, query, nil, nil); err != nil {
		return fmt.Errorf("seal bid %d: %w", bidID, err)
	}

	return nil
}

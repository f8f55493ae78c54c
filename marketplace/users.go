package marketplace

import (
	"context"
	"fmt"
	"strconv"
)

// SelfUserID resolves the authenticated user's own identifier, needed as
// the bidder_id when placing bids.
func (s *Session) SelfUserID(ctx context.Context) (int64, error) {
	var result struct {
		ID int64 `json:"id"`
	}
	if err := s.do(ctx, "GET", "/users/0.1/self/", nil, nil, &result); err != nil {
		return 0, fmt.Errorf("self user: %w", err)
	}
	return result.ID, nil
}

// UserByID fetches a user record, including the reported location used by
// the eligibility filter.
func (s *Session) UserByID(ctx context.Context, userID int64) (*User, error) {
	var result User
	path := "/users/0.1/users/" + strconv.FormatInt(userID, 10) + "/"
	if err := s.do(ctx, "GET", path, nil, nil, &result); err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	return &result, nil
}

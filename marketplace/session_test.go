package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, handler http.HandlerFunc) *Session {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewSession("test-token", WithBaseURL(server.URL))
}

func TestSearchProjects(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/0.1/projects/active/", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("Freelancer-OAuth-V1"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.ElementsMatch(t, []string{"3", "17"}, r.URL.Query()["jobs[]"])
		assert.ElementsMatch(t, []string{"en"}, r.URL.Query()["languages[]"])

		_, _ = w.Write([]byte(`{
			"status": "success",
			"result": {
				"projects": [
					{
						"id": 101,
						"owner_id": 7,
						"title": "Build a Shopify store",
						"status": "active",
						"type": "fixed",
						"currency": {"code": "USD", "exchange_rate": 1},
						"budget": {"minimum": 250, "maximum": 750},
						"upgrades": {"NDA": false},
						"seo_url": "build-shopify-store"
					}
				]
			}
		}`))
	})

	projects, err := s.SearchProjects(context.Background(), SearchFilter{
		SkillIDs:      []int{3, 17},
		LanguageCodes: []string{"en"},
	}, 10, 0)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	p := projects[0]
	assert.Equal(t, int64(101), p.ID)
	assert.Equal(t, "USD", p.Currency.Code)
	assert.Equal(t, 1.0, p.Currency.ExchangeRate)
	assert.Equal(t, 250.0, p.Budget.Minimum)
	assert.False(t, p.Upgrades.NDA)
}

func TestSearchProjects_EnvelopeFailure(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "error", "message": "invalid filter"}`))
	})

	_, err := s.SearchProjects(context.Background(), SearchFilter{}, 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")
}

func TestProjectDetails(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/0.1/projects/", r.URL.Path)
		assert.Equal(t, "101", r.URL.Query().Get("projects[]"))
		assert.Equal(t, "true", r.URL.Query().Get("full_description"))

		_, _ = w.Write([]byte(`{
			"status": "success",
			"result": {
				"projects": [
					{"id": 101, "title": "Build a Shopify store", "description": "full text here", "budget": {"minimum": 250, "maximum": 750}}
				]
			}
		}`))
	})

	detail, err := s.ProjectDetails(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, "full text here", detail.Description)
	assert.Equal(t, 750.0, detail.Budget.Maximum)
}

func TestProjectDetails_NotFound(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "success", "result": {"projects": []}}`))
	})

	_, err := s.ProjectDetails(context.Background(), 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSelfUserID(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/0.1/self/", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "success", "result": {"id": 42}}`))
	})

	id, err := s.SelfUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestUserByID(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/0.1/users/7/", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"status": "success",
			"result": {"id": 7, "username": "client7", "location": {"country": {"name": "Germany"}}}
		}`))
	})

	user, err := s.UserByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Germany", user.Location.Country.Name)
}

func TestPlaceBid(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/projects/0.1/bids/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"status": "success", "result": {"id": 555, "project_id": 101, "amount": 300}}`))
	})

	bid, err := s.PlaceBid(context.Background(), BidRequest{
		ProjectID:   101,
		BidderID:    42,
		Amount:      300,
		Period:      10,
		Description: "bid text",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(555), bid.ID)
}

func TestSealBid(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/projects/0.1/bids/555/", r.URL.Path)
		assert.Equal(t, "seal", r.URL.Query().Get("action"))
		_, _ = w.Write([]byte(`{"status": "success"}`))
	})

	require.NoError(t, s.SealBid(context.Background(), 555))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &APIError{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &APIError{StatusCode: http.StatusBadGateway}, true},
		{"auth error", &APIError{StatusCode: http.StatusUnauthorized}, false},
		{"bad request", &APIError{StatusCode: http.StatusBadRequest}, false},
		{"transport error", context.DeadlineExceeded, true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

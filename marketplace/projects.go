package marketplace

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SearchProjects returns a page of candidate projects matching the filter,
// newest updates first.
func (s *Session) SearchProjects(ctx context.Context, filter SearchFilter, limit, offset int) ([]RawProject, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("sort_field", "time_updated")
	query.Set("or_search_query", "true")
	for _, id := range filter.SkillIDs {
		query.Add("jobs[]", strconv.Itoa(id))
	}
	for _, code := range filter.LanguageCodes {
		query.Add("languages[]", code)
	}

	var result struct {
		Projects []RawProject `json:"projects"`
	}
	if err := s.do(ctx, "GET", "/projects/0.1/projects/active/", query, nil, &result); err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}

	return result.Projects, nil
}

// ProjectDetails fetches the full record for one project, including the
// complete description and final budget bounds.
func (s *Session) ProjectDetails(ctx context.Context, projectID int64) (*ProjectDetail, error) {
	query := url.Values{}
	query.Add("projects[]", strconv.FormatInt(projectID, 10))
	query.Set("full_description", "true")
	query.Set("job_details", "true")
	query.Set("user_details", "true")
	query.Set("user_reputation", "true")
	query.Set("user_location", "true")

	var result struct {
		Projects []ProjectDetail `json:"projects"`
	}
	if err := s.do(ctx, "GET", "/projects/0.1/projects/", query, nil, &result); err != nil {
		return nil, fmt.Errorf("project details %d: %w", projectID, err)
	}

	if len(result.Projects) == 0 {
		return nil, fmt.Errorf("project details %d: not found", projectID)
	}

	return &result.Projects[0], nil
}

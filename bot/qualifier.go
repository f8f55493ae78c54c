package bot

import (
	"context"
	"log/slog"
	"strings"
)

// Qualifier decides whether a project falls inside the service catalog.
// The decision fails closed: any generation error, and any answer other
// than an exact affirmative, declines the project.
type Qualifier struct {
	generator Generator
	prompts   *Prompts
	logger    *slog.Logger
	metrics   *Metrics
}

// NewQualifier creates a service-match qualifier.
func NewQualifier(generator Generator, prompts *Prompts, logger *slog.Logger, metrics *Metrics) *Qualifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Qualifier{
		generator: generator,
		prompts:   prompts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Qualify reports whether the project matches the service catalog.
func (q *Qualifier) Qualify(ctx context.Context, project EnrichedProject) bool {
	answer, err := q.generator.Generate(ctx, q.prompts.MatchSystem(), q.prompts.MatchUser(project))
	if err != nil {
		q.logger.Warn("Service-match generation failed, declining project",
			"project_id", project.ID,
			"error", err)
		if q.metrics != nil {
			q.metrics.GenerationErrors.WithLabelValues("qualify").Inc()
		}
		return false
	}

	matched := strings.EqualFold(strings.TrimSpace(answer), "match")
	if q.metrics != nil {
		if matched {
			q.metrics.ProjectsQualified.Inc()
		} else {
			q.metrics.ProjectsDeclined.Inc()
		}
	}
	if !matched {
		q.logger.Debug("Project declined by service match",
			"project_id", project.ID,
			"title", project.Title,
			"answer", truncate(answer, 80))
	}
	return matched
}

// truncate shortens s for log output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

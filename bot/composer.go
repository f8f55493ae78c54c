package bot

import (
	"context"
	"log/slog"
)

// Composer writes the proposal text for a qualified project. A failed
// generation yields an empty draft so the caller can decide whether to
// submit without copy or drop the project.
type Composer struct {
	generator Generator
	prompts   *Prompts
	logger    *slog.Logger
	metrics   *Metrics
}

// NewComposer creates a bid-copy composer.
func NewComposer(generator Generator, prompts *Prompts, logger *slog.Logger, metrics *Metrics) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		generator: generator,
		prompts:   prompts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Compose returns the proposal text for a project, or "" when generation
// fails.
func (c *Composer) Compose(ctx context.Context, project EnrichedProject) string {
	content, err := c.generator.Generate(ctx, c.prompts.ComposeSystem(), c.prompts.ComposeUser(project))
	if err != nil {
		c.logger.Warn("Proposal generation failed",
			"project_id", project.ID,
			"error", err)
		if c.metrics != nil {
			c.metrics.GenerationErrors.WithLabelValues("compose").Inc()
		}
		return ""
	}
	return content
}

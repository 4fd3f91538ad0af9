// Package generate renders personalization artifacts for parsed order
// items. It selects eligible rows, feeds them one at a time through the
// rendering tool, verifies the artifact landed in the shared output
// directory, and records the outcome per row.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"garland/internal/logging"
	"garland/internal/orders"
	"garland/internal/services"
	"garland/internal/services/illustrator"
)

const (
	defaultLimit = 25

	// maxNames is the template capacity: no layer holds more entries.
	maxNames = 10
)

// Renderer abstracts the rendering tool for tests.
type Renderer interface {
	Validate() error
	Render(ctx context.Context, job illustrator.Job) error
}

// Options select and scope one generation run.
type Options struct {
	Product string
	Limit   int
	IDs     []int64
	Force   bool
	DryRun  bool
}

// Summary reports what one generation run did.
type Summary struct {
	Selected  int
	Generated int
	Failed    int
}

// Stage runs artifact generation over eligible rows.
type Stage struct {
	store     *orders.Store
	renderer  Renderer
	outputDir string
	logger    *slog.Logger
}

// NewStage wires the generation stage. outputDir is the shared directory
// the rendering tool saves into.
func NewStage(store *orders.Store, renderer Renderer, outputDir string, logger *slog.Logger) *Stage {
	return &Stage{
		store:     store,
		renderer:  renderer,
		outputDir: outputDir,
		logger:    logging.NewComponentLogger(logger, "generate"),
	}
}

// Run generates an artifact for every eligible row. Rendering is strictly
// sequential because the tool reads a single shared job file. Outcomes for
// the whole run share one transaction; a dry run reports what it would do,
// makes no tool calls, and rolls back.
func (s *Stage) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	// The output dir lives on shared storage and must already exist;
	// creating it here would hide a mount failure.
	if info, err := os.Stat(s.outputDir); err != nil || !info.IsDir() {
		return Summary{}, services.Wrap(services.ErrConfiguration, "generate", "run",
			fmt.Sprintf("output directory does not exist: %s", s.outputDir), err)
	}
	if !opts.DryRun {
		if err := s.renderer.Validate(); err != nil {
			return Summary{}, err
		}
	}

	rows, err := s.store.Generatable(ctx, orders.GenerateQuery{
		Product: opts.Product,
		Limit:   opts.Limit,
		IDs:     opts.IDs,
		Force:   opts.Force,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("select rows for generation: %w", err)
	}
	summary := Summary{Selected: len(rows)}
	if len(rows) == 0 {
		s.logger.Info("no rows eligible for generation", logging.String("product", opts.Product))
		return summary, nil
	}

	batch, err := s.store.BeginBatch(ctx)
	if err != nil {
		return summary, err
	}
	defer batch.Rollback()

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		filename := fmt.Sprintf("%s_%s.pdf", row.OrderNumber, row.ItemID)

		genErr := s.generateRow(ctx, row, filename, opts.DryRun)
		if genErr != nil {
			summary.Failed++
			s.logger.Error("generation failed",
				logging.Int64("id", row.ID),
				logging.String("order", row.OrderNumber),
				logging.String("item", row.ItemID),
				logging.Error(genErr))
			if err := batch.SaveGenerationOutcome(ctx, row.ID, filename, false, genErr.Error()); err != nil {
				return summary, err
			}
			continue
		}

		summary.Generated++
		s.logger.Info("generated artifact",
			logging.Int64("id", row.ID),
			logging.String("order", row.OrderNumber),
			logging.String("item", row.ItemID),
			logging.String("filename", filename))
		if err := batch.SaveGenerationOutcome(ctx, row.ID, filename, true, ""); err != nil {
			return summary, err
		}
	}

	if opts.DryRun {
		s.logger.Info("dry run, rolling back generation outcomes",
			logging.Int("generated", summary.Generated),
			logging.Int("failed", summary.Failed))
		return summary, batch.Rollback()
	}
	if err := batch.Commit(); err != nil {
		return summary, err
	}
	s.logger.Info("generation run complete",
		logging.Int("selected", summary.Selected),
		logging.Int("generated", summary.Generated),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

func (s *Stage) generateRow(ctx context.Context, row *orders.Item, filename string, dryRun bool) error {
	names := parseStoredNames(row.Names)
	if len(names) == 0 {
		return services.Wrap(services.ErrValidation, "generate", "prepare job", "empty names list", nil)
	}
	if len(names) > maxNames {
		return services.Wrap(services.ErrValidation, "generate", "prepare job",
			fmt.Sprintf("too many names: %d exceeds template capacity of %d", len(names), maxNames), nil)
	}

	year := strings.TrimSpace(row.Year)
	if year == "" {
		year = "2025"
	}
	namesWithYear := append([]string{year}, names...)
	job := illustrator.Job{
		Names:     namesWithYear,
		LayerName: strconv.Itoa(len(namesWithYear)),
		Filename:  filename,
	}

	if dryRun {
		s.logger.Info("dry run, skipping tool invocation",
			logging.Int64("id", row.ID),
			logging.String("filename", filename),
			logging.String("layer", job.LayerName))
		return nil
	}

	if err := s.renderer.Render(ctx, job); err != nil {
		return err
	}

	artifact := filepath.Join(s.outputDir, filename)
	if _, err := os.Stat(artifact); err != nil {
		return services.Wrap(services.ErrExternalTool, "generate", "verify artifact",
			fmt.Sprintf("expected file not found: %s", artifact), err)
	}
	return nil
}

// parseStoredNames accepts the stored names column: either a JSON array or
// a legacy comma-separated string.
func parseStoredNames(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	var parsed []any
	if err := json.Unmarshal([]byte(value), &parsed); err == nil {
		names := make([]string, 0, len(parsed))
		for _, entry := range parsed {
			if text, ok := entry.(string); ok {
				if text = strings.TrimSpace(text); text != "" {
					names = append(names, text)
				}
			}
		}
		return names
	}
	var names []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

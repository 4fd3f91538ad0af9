// Package illustrator drives the external rendering tool. A generation job
// is communicated through a single JSON file at a fixed path; the tool is
// then launched with the render script and reads the job file itself, so
// invocations must be strictly sequential.
package illustrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"garland/internal/services"
)

var commandContext = exec.CommandContext

const (
	defaultTimeout = 17 * time.Second
	defaultSettle  = 5 * time.Second
)

// Job describes one artifact to render. Names already include the year
// prefix; LayerName selects the template layer sized for the name count.
type Job struct {
	Names     []string
	LayerName string
	Filename  string
}

// Runner invokes the rendering tool for one job at a time.
type Runner struct {
	binary     string
	scriptPath string
	jobPath    string
	timeout    time.Duration
	settle     time.Duration
	sleep      func(time.Duration)
}

// Option configures the runner.
type Option func(*Runner)

// WithTimeout bounds a single tool invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runner) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithSettleDelay sets the wait after the tool returns, giving it time to
// flush the artifact to the shared output directory.
func WithSettleDelay(settle time.Duration) Option {
	return func(r *Runner) {
		if settle >= 0 {
			r.settle = settle
		}
	}
}

// NewRunner constructs a runner for the given tool binary, render script,
// and job file path.
func NewRunner(binary, scriptPath, jobPath string, opts ...Option) *Runner {
	runner := &Runner{
		binary:     strings.TrimSpace(binary),
		scriptPath: strings.TrimSpace(scriptPath),
		jobPath:    strings.TrimSpace(jobPath),
		timeout:    defaultTimeout,
		settle:     defaultSettle,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Validate checks that the tool binary and render script exist.
func (r *Runner) Validate() error {
	if r.binary == "" {
		return services.Wrap(services.ErrConfiguration, "generate", "validate", "rendering binary is required", nil)
	}
	if _, err := os.Stat(r.binary); err != nil {
		return services.Wrap(services.ErrConfiguration, "generate", "validate",
			fmt.Sprintf("rendering binary not found at %s", r.binary), err)
	}
	if r.scriptPath == "" {
		return services.Wrap(services.ErrConfiguration, "generate", "validate", "render script is required", nil)
	}
	if _, err := os.Stat(r.scriptPath); err != nil {
		return services.Wrap(services.ErrConfiguration, "generate", "validate",
			fmt.Sprintf("render script not found at %s", r.scriptPath), err)
	}
	if r.jobPath == "" {
		return services.Wrap(services.ErrConfiguration, "generate", "validate", "job data path is required", nil)
	}
	return nil
}

// Render writes the job file, triggers the tool, and waits the settle
// delay. The caller verifies the artifact afterwards: tool exit status
// alone does not prove the output exists.
func (r *Runner) Render(ctx context.Context, job Job) error {
	if len(job.Names) == 0 {
		return errors.New("illustrator render: names required")
	}
	if job.Filename == "" {
		return errors.New("illustrator render: filename required")
	}
	if err := r.writeJobFile(job); err != nil {
		return err
	}
	if err := r.trigger(ctx); err != nil {
		return err
	}
	if r.settle > 0 {
		r.sleep(r.settle)
	}
	return nil
}

// writeJobFile serializes the job. The legacy "name" key duplicates
// "names" because older script revisions read either.
func (r *Runner) writeJobFile(job Job) error {
	payload := map[string]any{
		"names":     job.Names,
		"name":      job.Names,
		"layerName": job.LayerName,
		"filename":  job.Filename,
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("illustrator render: encode job: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.jobPath), 0o755); err != nil {
		return fmt.Errorf("illustrator render: create job directory: %w", err)
	}
	if err := os.WriteFile(r.jobPath, encoded, 0o644); err != nil {
		return fmt.Errorf("illustrator render: write job file: %w", err)
	}
	return nil
}

func (r *Runner) trigger(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := commandContext(runCtx, r.binary, "-s", r.scriptPath)
	cmd.Dir = filepath.Dir(r.jobPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrExternalTool, "generate", "trigger",
				fmt.Sprintf("rendering tool timed out after %s", r.timeout), err)
		}
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			return services.Wrap(services.ErrExternalTool, "generate", "trigger", detail, err)
		}
		return services.Wrap(services.ErrExternalTool, "generate", "trigger", "rendering tool failed", err)
	}
	return nil
}

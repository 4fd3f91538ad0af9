package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"garland/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DBPath = filepath.Join(base, "garland.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.JobDataPath = filepath.Join(base, "data", "job_data.json")
	cfgVal.Feed.BaseURL = "http://feed.invalid"
	cfgVal.OpenAI.APIKey = "test"
	cfgVal.ShipStation.APIKey = "test"
	cfgVal.ShipStation.PartnerKey = "test"

	if err := os.MkdirAll(cfgVal.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProducts overrides the configured product list.
func WithProducts(products ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Feed.Products = products
	}
}

// WithFeedURL points the feed client at the provided base URL.
func WithFeedURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Feed.BaseURL = url
	}
}

// WithStubbedIllustrator writes a stub rendering binary under the test's
// temp directory and wires it, plus a placeholder script, into the config.
// The stub records its arguments to <binary>.args for assertions.
func WithStubbedIllustrator() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		binary := filepath.Join(binDir, "illustrator")
		script := []byte("#!/bin/sh\necho \"$@\" > \"$0.args\"\nexit 0\n")
		if err := os.WriteFile(binary, script, 0o755); err != nil {
			b.t.Fatalf("write stub illustrator: %v", err)
		}
		scriptPath := filepath.Join(binDir, "render.jsx")
		if err := os.WriteFile(scriptPath, []byte("// stub\n"), 0o644); err != nil {
			b.t.Fatalf("write stub script: %v", err)
		}
		b.cfg.Illustrator.Binary = binary
		b.cfg.Illustrator.ScriptPath = scriptPath
		b.cfg.Illustrator.SettleSeconds = 0
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory configuration.
type Paths struct {
	DBPath      string `toml:"db_path"`
	LogDir      string `toml:"log_dir"`
	OutputDir   string `toml:"output_dir"`
	JobDataPath string `toml:"job_data_path"`
}

// Feed contains configuration for the order source API.
type Feed struct {
	BaseURL        string   `toml:"base_url"`
	Products       []string `toml:"products"`
	RequestTimeout int      `toml:"request_timeout"`
}

// OpenAI contains configuration for the personalization parsing model.
type OpenAI struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	Model           string  `toml:"model"`
	Temperature     float64 `toml:"temperature"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	RetryAttempts   int     `toml:"retry_attempts"`
	RetryBackoff    float64 `toml:"retry_backoff_seconds"`
}

// Illustrator contains configuration for the rendering trigger.
type Illustrator struct {
	Binary         string `toml:"binary"`
	ScriptPath     string `toml:"script_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SettleSeconds  int    `toml:"settle_seconds"`
}

// ShipStation contains configuration for the order tagging API.
type ShipStation struct {
	BaseURL            string `toml:"base_url"`
	APIKey             string `toml:"api_key"`
	PartnerKey         string `toml:"partner_key"`
	GeneratedTagID     int    `toml:"generated_tag_id"`
	SecondaryTagID     int    `toml:"secondary_tag_id"`
	ManualTagID        int    `toml:"manual_tag_id"`
	RateLimitThreshold int    `toml:"rate_limit_threshold"`
	RequestTimeout     int    `toml:"request_timeout"`
}

// Fetch failure policies accepted by Ingest.OnFetchError.
const (
	FetchErrorFail     = "fail"
	FetchErrorContinue = "continue"
)

// Ingest contains ingestion policy settings.
type Ingest struct {
	// OnFetchError selects the failure policy when one product's feed
	// fetch fails: "fail" aborts the run, "continue" skips the product
	// and still reconciles with whatever keys were gathered.
	OnFetchError string `toml:"on_fetch_error"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Garland.
//
// Sections by subsystem:
//   - Paths: database location, log directory, artifact output directory
//   - Feed: order source API connection and product list
//   - OpenAI: personalization parsing model settings and retry budget
//   - Illustrator: rendering trigger binary, script, timing
//   - ShipStation: tagging API credentials, tag identifiers, rate limit
//   - Ingest: fetch failure policy
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Feed        Feed        `toml:"feed"`
	OpenAI      OpenAI      `toml:"openai"`
	Illustrator Illustrator `toml:"illustrator"`
	ShipStation ShipStation `toml:"shipstation"`
	Ingest      Ingest      `toml:"ingest"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/garland/config.toml")
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to the given path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("garland.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run writes into.
// OutputDir is deliberately not created: the rendering tool expects it to
// already exist on shared storage, and its absence must surface as an error.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.LogDir(), filepath.Dir(c.Paths.DBPath)}
	if strings.TrimSpace(c.Paths.JobDataPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.JobDataPath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogDir returns the configured log directory.
func (c *Config) LogDir() string {
	return c.Paths.LogDir
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

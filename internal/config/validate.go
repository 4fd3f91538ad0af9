package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Credentials are checked by
// the service clients at call time so read-only commands work without them.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOpenAI(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DBPath == "" {
		return errors.New("paths.db_path must be set")
	}
	return nil
}

func (c *Config) validateOpenAI() error {
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return errors.New("openai.temperature must be between 0 and 2")
	}
	if c.OpenAI.RetryAttempts < 1 {
		return errors.New("openai.retry_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateIngest() error {
	switch c.Ingest.OnFetchError {
	case FetchErrorFail, FetchErrorContinue:
		return nil
	default:
		return fmt.Errorf("ingest.on_fetch_error: unsupported value %q (expected \"fail\" or \"continue\")", c.Ingest.OnFetchError)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

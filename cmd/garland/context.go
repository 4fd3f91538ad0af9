package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"garland/internal/config"
	"garland/internal/logging"
	"garland/internal/orders"
	"garland/internal/runlock"
	"garland/internal/services/illustrator"
	"garland/internal/services/openai"
	"garland/internal/services/orderfeed"
	"garland/internal/services/shipstation"
	"garland/internal/tagging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the shared logger. Every record of one invocation
// carries the same run id so interleaved file logs stay attributable.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger.With(logging.String("run_id", uuid.NewString()))
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*orders.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return orders.Open(cfg)
}

// acquireRunLock serializes mutating pipeline commands.
func (c *commandContext) acquireRunLock() (*runlock.Lock, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	lock := runlock.New(cfg.Paths.DBPath)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	return lock, nil
}

func (c *commandContext) feedClient() (*orderfeed.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return orderfeed.NewClient(
		cfg.Feed.BaseURL,
		orderfeed.WithTimeout(time.Duration(cfg.Feed.RequestTimeout)*time.Second),
	), nil
}

func (c *commandContext) openaiClient() (*openai.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return openai.NewClient(
		cfg.OpenAI.APIKey,
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithModel(cfg.OpenAI.Model),
		openai.WithSampling(cfg.OpenAI.Temperature, cfg.OpenAI.MaxOutputTokens),
		openai.WithRetry(cfg.OpenAI.RetryAttempts, time.Duration(cfg.OpenAI.RetryBackoff*float64(time.Second))),
		openai.WithTimeout(time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second),
	), nil
}

func (c *commandContext) illustratorRunner() (*illustrator.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return illustrator.NewRunner(
		cfg.Illustrator.Binary,
		cfg.Illustrator.ScriptPath,
		cfg.Paths.JobDataPath,
		illustrator.WithTimeout(time.Duration(cfg.Illustrator.TimeoutSeconds)*time.Second),
		illustrator.WithSettleDelay(time.Duration(cfg.Illustrator.SettleSeconds)*time.Second),
	), nil
}

func (c *commandContext) shipstationClient() (*shipstation.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return shipstation.NewClient(
		cfg.ShipStation.BaseURL,
		cfg.ShipStation.APIKey,
		cfg.ShipStation.PartnerKey,
		shipstation.WithTimeout(time.Duration(cfg.ShipStation.RequestTimeout)*time.Second),
	), nil
}

func (c *commandContext) tagIDs() (tagging.TagIDs, int, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return tagging.TagIDs{}, 0, err
	}
	return tagging.TagIDs{
		Generated: cfg.ShipStation.GeneratedTagID,
		Secondary: cfg.ShipStation.SecondaryTagID,
		Manual:    cfg.ShipStation.ManualTagID,
	}, cfg.ShipStation.RateLimitThreshold, nil
}

// defaultProduct resolves which product a stage command works on when the
// flag is omitted.
func (c *commandContext) defaultProduct() (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if len(cfg.Feed.Products) == 0 {
		return "", nil
	}
	return cfg.Feed.Products[0], nil
}

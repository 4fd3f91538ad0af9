package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeed()
	c.normalizeOpenAI()
	if err := c.normalizeIllustrator(); err != nil {
		return err
	}
	c.normalizeShipStation()
	c.normalizeIngest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DBPath) == "" {
		c.Paths.DBPath = defaultDBPath
	}
	if c.Paths.DBPath, err = expandPath(c.Paths.DBPath); err != nil {
		return fmt.Errorf("paths.db_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JobDataPath) == "" {
		c.Paths.JobDataPath = defaultJobDataPath
	}
	if c.Paths.JobDataPath, err = expandPath(c.Paths.JobDataPath); err != nil {
		return fmt.Errorf("paths.job_data_path: %w", err)
	}
	c.Paths.OutputDir = strings.TrimSpace(c.Paths.OutputDir)
	if c.Paths.OutputDir == "" {
		if value, ok := os.LookupEnv("SAVE_DIR"); ok {
			c.Paths.OutputDir = strings.TrimSpace(value)
		}
	}
	if c.Paths.OutputDir != "" {
		if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeFeed() {
	c.Feed.BaseURL = strings.TrimRight(strings.TrimSpace(c.Feed.BaseURL), "/")
	if c.Feed.BaseURL == "" {
		if value, ok := os.LookupEnv("API_URL"); ok {
			c.Feed.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	if value, ok := os.LookupEnv("ORDER_PRODUCTS"); ok {
		products := make([]string, 0, 2)
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				products = append(products, part)
			}
		}
		if len(products) > 0 {
			c.Feed.Products = products
		}
	}
	if len(c.Feed.Products) == 0 {
		c.Feed.Products = []string{defaultProduct}
	}
	if c.Feed.RequestTimeout <= 0 {
		c.Feed.RequestTimeout = defaultFeedRequestTimeout
	}
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	if c.OpenAI.MaxOutputTokens <= 0 {
		c.OpenAI.MaxOutputTokens = defaultOpenAIMaxTokens
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeout
	}
	if c.OpenAI.RetryAttempts <= 0 {
		c.OpenAI.RetryAttempts = defaultRetryAttempts
	}
	if c.OpenAI.RetryBackoff <= 0 {
		c.OpenAI.RetryBackoff = defaultRetryBackoff
	}
}

func (c *Config) normalizeIllustrator() error {
	var err error
	c.Illustrator.Binary = strings.TrimSpace(c.Illustrator.Binary)
	if c.Illustrator.Binary == "" {
		if value, ok := os.LookupEnv("ILLUSTRATOR_PATH"); ok {
			c.Illustrator.Binary = strings.TrimSpace(value)
		}
	}
	if c.Illustrator.Binary != "" {
		if c.Illustrator.Binary, err = expandPath(c.Illustrator.Binary); err != nil {
			return fmt.Errorf("illustrator.binary: %w", err)
		}
	}
	c.Illustrator.ScriptPath = strings.TrimSpace(c.Illustrator.ScriptPath)
	if c.Illustrator.ScriptPath != "" {
		if c.Illustrator.ScriptPath, err = expandPath(c.Illustrator.ScriptPath); err != nil {
			return fmt.Errorf("illustrator.script_path: %w", err)
		}
	}
	if c.Illustrator.TimeoutSeconds <= 0 {
		c.Illustrator.TimeoutSeconds = defaultIllustratorTimeout
	}
	if c.Illustrator.SettleSeconds < 0 {
		c.Illustrator.SettleSeconds = defaultSettleSeconds
	}
	return nil
}

func (c *Config) normalizeShipStation() {
	c.ShipStation.BaseURL = strings.TrimRight(strings.TrimSpace(c.ShipStation.BaseURL), "/")
	if c.ShipStation.BaseURL == "" {
		c.ShipStation.BaseURL = defaultShipStationBaseURL
	}
	c.ShipStation.APIKey = strings.TrimSpace(c.ShipStation.APIKey)
	if c.ShipStation.APIKey == "" {
		if value, ok := os.LookupEnv("SS_KEY"); ok {
			c.ShipStation.APIKey = strings.TrimSpace(value)
		}
	}
	c.ShipStation.PartnerKey = strings.TrimSpace(c.ShipStation.PartnerKey)
	if c.ShipStation.PartnerKey == "" {
		if value, ok := os.LookupEnv("X_PARTNER_KEY"); ok {
			c.ShipStation.PartnerKey = strings.TrimSpace(value)
		}
	}
	if c.ShipStation.GeneratedTagID == 0 {
		c.ShipStation.GeneratedTagID = defaultGeneratedTagID
	}
	if c.ShipStation.SecondaryTagID == 0 {
		c.ShipStation.SecondaryTagID = defaultSecondaryTagID
	}
	if c.ShipStation.ManualTagID == 0 {
		c.ShipStation.ManualTagID = defaultManualTagID
	}
	if c.ShipStation.RateLimitThreshold <= 0 {
		c.ShipStation.RateLimitThreshold = defaultRateLimitThreshold
	}
	if c.ShipStation.RequestTimeout <= 0 {
		c.ShipStation.RequestTimeout = defaultTagRequestTimeout
	}
}

func (c *Config) normalizeIngest() {
	c.Ingest.OnFetchError = strings.ToLower(strings.TrimSpace(c.Ingest.OnFetchError))
	if c.Ingest.OnFetchError == "" {
		c.Ingest.OnFetchError = defaultOnFetchError
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

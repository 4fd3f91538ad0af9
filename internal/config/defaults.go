package config

const (
	defaultDBPath             = "~/.local/share/garland/garland.db"
	defaultLogDir             = "~/.local/share/garland/logs"
	defaultJobDataPath        = "~/.local/share/garland/data/job_data.json"
	defaultProduct            = "3d-Christmas-Tree-Ornament"
	defaultFeedRequestTimeout = 30
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultOpenAIModel        = "gpt-4o-mini"
	defaultOpenAITemperature  = 0.2
	defaultOpenAIMaxTokens    = 600
	defaultOpenAITimeout      = 30
	defaultRetryAttempts      = 3
	defaultRetryBackoff       = 2.0
	defaultIllustratorTimeout = 17
	defaultSettleSeconds      = 5
	defaultShipStationBaseURL = "https://ssapi.shipstation.com"
	defaultGeneratedTagID     = 130516
	defaultSecondaryTagID     = 76648
	defaultManualTagID        = 130517
	defaultRateLimitThreshold = 15
	defaultTagRequestTimeout  = 30
	defaultOnFetchError       = "fail"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DBPath:      defaultDBPath,
			LogDir:      defaultLogDir,
			JobDataPath: defaultJobDataPath,
		},
		Feed: Feed{
			Products:       []string{defaultProduct},
			RequestTimeout: defaultFeedRequestTimeout,
		},
		OpenAI: OpenAI{
			BaseURL:         defaultOpenAIBaseURL,
			Model:           defaultOpenAIModel,
			Temperature:     defaultOpenAITemperature,
			MaxOutputTokens: defaultOpenAIMaxTokens,
			TimeoutSeconds:  defaultOpenAITimeout,
			RetryAttempts:   defaultRetryAttempts,
			RetryBackoff:    defaultRetryBackoff,
		},
		Illustrator: Illustrator{
			TimeoutSeconds: defaultIllustratorTimeout,
			SettleSeconds:  defaultSettleSeconds,
		},
		ShipStation: ShipStation{
			BaseURL:            defaultShipStationBaseURL,
			GeneratedTagID:     defaultGeneratedTagID,
			SecondaryTagID:     defaultSecondaryTagID,
			ManualTagID:        defaultManualTagID,
			RateLimitThreshold: defaultRateLimitThreshold,
			RequestTimeout:     defaultTagRequestTimeout,
		},
		Ingest: Ingest{
			OnFetchError: defaultOnFetchError,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package pricing

import "time"

const (
	ManualUpdateReason = "Manual price update"
	ClampReason        = "Automatic adjustment to stay within range"
	FallbackReasoning  = "unable to analyze; price unchanged"

	defaultSuggestionReason = "Applied pricing suggestion"
)

type Config struct {
	// bound for a single oracle call
	OracleTimeout time.Duration
	// 1 means no retry; anything above 2 is capped
	OracleMaxAttempts int

	FallbackConfidence float64

	// pricing log rows fed to the aggregator / oracle
	HistoryDepth int
	// confirmed bookings newer than this count as recent
	RecentWindow time.Duration

	SuggestionTTL time.Duration

	DefaultHistoryLimit int
	MaxHistoryLimit     int
}

const (
	defaultOracleTimeout      = 15 * time.Second
	defaultOracleMaxAttempts  = 1
	maxOracleAttempts         = 2
	defaultFallbackConfidence = 0.1
	defaultHistoryDepth       = 5
	defaultRecentWindow       = 24 * time.Hour
	defaultSuggestionTTL      = 30 * time.Minute
	defaultHistoryLimit       = 20
	defaultMaxHistoryLimit    = 100
)

func DefaultConfig() Config {
	return Config{
		OracleTimeout:       defaultOracleTimeout,
		OracleMaxAttempts:   defaultOracleMaxAttempts,
		FallbackConfidence:  defaultFallbackConfidence,
		HistoryDepth:        defaultHistoryDepth,
		RecentWindow:        defaultRecentWindow,
		SuggestionTTL:       defaultSuggestionTTL,
		DefaultHistoryLimit: defaultHistoryLimit,
		MaxHistoryLimit:     defaultMaxHistoryLimit,
	}
}

// withDefaults fills zero values so a partially built Config stays usable.
func (c Config) withDefaults() Config {
	def := DefaultConfig()

	if c.OracleTimeout <= 0 {
		c.OracleTimeout = def.OracleTimeout
	}
	if c.OracleMaxAttempts < 1 {
		c.OracleMaxAttempts = def.OracleMaxAttempts
	}
	if c.OracleMaxAttempts > maxOracleAttempts {
		c.OracleMaxAttempts = maxOracleAttempts
	}
	if c.FallbackConfidence <= 0 || c.FallbackConfidence > 1 {
		c.FallbackConfidence = def.FallbackConfidence
	}
	if c.HistoryDepth <= 0 {
		c.HistoryDepth = def.HistoryDepth
	}
	if c.RecentWindow <= 0 {
		c.RecentWindow = def.RecentWindow
	}
	if c.SuggestionTTL <= 0 {
		c.SuggestionTTL = def.SuggestionTTL
	}
	if c.DefaultHistoryLimit <= 0 {
		c.DefaultHistoryLimit = def.DefaultHistoryLimit
	}
	if c.MaxHistoryLimit < c.DefaultHistoryLimit {
		c.MaxHistoryLimit = def.MaxHistoryLimit
	}

	return c
}

// Package config loads and validates worker configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Reaper    ReaperConfig    `mapstructure:"reaper"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Checks    ChecksConfig    `mapstructure:"checks"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Storage   StorageConfig   `mapstructure:"storage"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the ops HTTP endpoint (healthz, metrics).
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// HTTPConfig configures outbound HTTP timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxRetries       int     `mapstructure:"max_retries"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int     `mapstructure:"backoff_max_ms"`
	UserAgent        string  `mapstructure:"user_agent"`
	PerHostRPS       float64 `mapstructure:"per_host_rps"`
	PerHostBurst     int     `mapstructure:"per_host_burst"`
}

// WorkerConfig governs the claim poll loop and heartbeat.
type WorkerConfig struct {
	PollIntervalSeconds      int `mapstructure:"poll_interval_seconds"`
	HeartbeatIntervalSeconds int `mapstructure:"heartbeat_interval_seconds"`
}

// ReaperConfig governs stuck-run recovery.
type ReaperConfig struct {
	IntervalSeconds   int `mapstructure:"interval_seconds"`
	StaleAfterMinutes int `mapstructure:"stale_after_minutes"`
}

// ScoringConfig holds the severity penalty table and pass threshold.
type ScoringConfig struct {
	Penalties     map[string]int `mapstructure:"penalties"`
	PassThreshold int            `mapstructure:"pass_threshold"`
}

// CheckConfig bounds one check type's fan-out.
type CheckConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxURLs     int `mapstructure:"max_urls"`
}

// ChecksConfig holds per-check-type limits.
type ChecksConfig struct {
	Preflight   CheckConfig `mapstructure:"preflight"`
	Performance CheckConfig `mapstructure:"performance"`
	Spelling    CheckConfig `mapstructure:"spelling"`
	Screenshots CheckConfig `mapstructure:"screenshots"`
	SiteAudit   CheckConfig `mapstructure:"site_audit"`
}

// ProviderConfig points at one external check service.
type ProviderConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// ProvidersConfig holds credentials/endpoints for every external service.
type ProvidersConfig struct {
	Performance ProviderConfig `mapstructure:"performance"`
	Spelling    ProviderConfig `mapstructure:"spelling"`
	LinkCheck   ProviderConfig `mapstructure:"link_check"`
	SiteAudit   ProviderConfig `mapstructure:"site_audit"`
	Screenshots ProviderConfig `mapstructure:"screenshots"`
}

// StorageConfig selects the artifact blob store.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for run-completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RELEASEPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.user_agent", "releasepass-bot/1.0")
	v.SetDefault("http.per_host_rps", 4)
	v.SetDefault("http.per_host_burst", 2)
	v.SetDefault("worker.poll_interval_seconds", 5)
	v.SetDefault("worker.heartbeat_interval_seconds", 30)
	v.SetDefault("reaper.interval_seconds", 300)
	v.SetDefault("reaper.stale_after_minutes", 60)
	v.SetDefault("scoring.pass_threshold", 50)
	v.SetDefault("scoring.penalties", map[string]int{
		"BLOCKER":  40,
		"CRITICAL": 20,
		"HIGH":     10,
		"MEDIUM":   5,
		"LOW":      2,
	})
	v.SetDefault("checks.preflight.concurrency", 3)
	v.SetDefault("checks.preflight.max_urls", 50)
	v.SetDefault("checks.performance.concurrency", 2)
	v.SetDefault("checks.performance.max_urls", 20)
	v.SetDefault("checks.spelling.concurrency", 5)
	v.SetDefault("checks.spelling.max_urls", 20)
	v.SetDefault("checks.screenshots.concurrency", 3)
	v.SetDefault("checks.screenshots.max_urls", 50)
	v.SetDefault("checks.site_audit.concurrency", 1)
	v.SetDefault("checks.site_audit.max_urls", 1)
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.prefix", "artifacts")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Worker.HeartbeatIntervalSeconds <= 0 {
		return fmt.Errorf("worker.heartbeat_interval_seconds must be > 0")
	}
	if c.Reaper.StaleAfterMinutes <= 0 {
		return fmt.Errorf("reaper.stale_after_minutes must be > 0")
	}
	if c.Scoring.PassThreshold < 0 || c.Scoring.PassThreshold > 100 {
		return fmt.Errorf("scoring.pass_threshold must be within [0,100]")
	}
	for _, cc := range []struct {
		name string
		cfg  CheckConfig
	}{
		{"checks.preflight", c.Checks.Preflight},
		{"checks.performance", c.Checks.Performance},
		{"checks.spelling", c.Checks.Spelling},
		{"checks.screenshots", c.Checks.Screenshots},
		{"checks.site_audit", c.Checks.SiteAudit},
	} {
		if cc.cfg.Concurrency <= 0 {
			return fmt.Errorf("%s.concurrency must be > 0", cc.name)
		}
		if cc.cfg.MaxURLs <= 0 {
			return fmt.Errorf("%s.max_urls must be > 0", cc.name)
		}
	}
	if c.Storage.Provider == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
	}
	return nil
}

// HTTPTimeout converts the configured timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// HeartbeatInterval converts the heartbeat knob into a duration.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Worker.HeartbeatIntervalSeconds) * time.Second
}

// PollInterval converts the claim poll knob into a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Worker.PollIntervalSeconds) * time.Second
}

// ReapStaleness converts the reaper staleness knob into a duration.
func (c Config) ReapStaleness() time.Duration {
	return time.Duration(c.Reaper.StaleAfterMinutes) * time.Minute
}

// ReapInterval converts the reaper sweep knob into a duration.
func (c Config) ReapInterval() time.Duration {
	return time.Duration(c.Reaper.IntervalSeconds) * time.Second
}

// BackoffInitial converts the initial retry backoff into a duration.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax converts the retry backoff ceiling into a duration.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}

// Package config carrega a configuração do gateway: defaults, depois um
// relay.yaml opcional, depois variáveis de ambiente (LISTEN_ADDR, RATE_LIMIT...).
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	DataDir    string `mapstructure:"data_dir"`
	ArchiveDir string `mapstructure:"archive_dir"`
	AdminKey   string `mapstructure:"admin_key"`

	RateEnabled        bool          `mapstructure:"rate_enabled"`
	RateLimit          int           `mapstructure:"rate_limit"`
	RateWindow         time.Duration `mapstructure:"rate_window"`
	RateBlockDuration  time.Duration `mapstructure:"rate_block_duration"`
	RateSweepEvery     time.Duration `mapstructure:"rate_sweep_every"`
	RateKeyHeader      string        `mapstructure:"rate_key_header"`
	TrustXFF           bool          `mapstructure:"trust_xff"`
	ConcurrencyMax     int           `mapstructure:"concurrency_max"`
	ConcurrencyTimeout time.Duration `mapstructure:"concurrency_timeout"`

	LogCap         int           `mapstructure:"log_cap"`
	LogListLimit   int           `mapstructure:"log_list_limit"`
	LogListMax     int           `mapstructure:"log_list_max"`
	PersistTimeout time.Duration `mapstructure:"persist_timeout"`

	WebhookURL     string        `mapstructure:"webhook_url"`
	WebhookRPS     float64       `mapstructure:"webhook_rps"`
	WebhookBurst   int           `mapstructure:"webhook_burst"`
	WebhookQueue   int           `mapstructure:"webhook_queue"`
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`

	QueueBackend  string `mapstructure:"queue_backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	RateStatsEnabled   bool          `mapstructure:"rate_stats_enabled"`
	RateStatsPrefix    string        `mapstructure:"rate_stats_prefix"`
	RateStatsTTL       time.Duration `mapstructure:"rate_stats_ttl"`
	RateStatsBucket    string        `mapstructure:"rate_stats_bucket"`
	RateStatsTrackKeys bool          `mapstructure:"rate_stats_track_keys"`

	// AllowedOrigins é uma lista separada por vírgulas; vazio desliga CORS.
	AllowedOrigins string `mapstructure:"allowed_origins"`

	LogLevel        string        `mapstructure:"log_level"`
	LogFile         string        `mapstructure:"log_file"`
	LogMaxSizeMB    int           `mapstructure:"log_max_size_mb"`
	LogMaxBackups   int           `mapstructure:"log_max_backups"`
	LogMaxAgeDays   int           `mapstructure:"log_max_age_days"`
	LogConsole      bool          `mapstructure:"log_console"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("archive_dir", "")
	v.SetDefault("admin_key", "")

	v.SetDefault("rate_enabled", true)
	v.SetDefault("rate_limit", 100)
	v.SetDefault("rate_window", 60*time.Second)
	v.SetDefault("rate_block_duration", 15*time.Minute)
	v.SetDefault("rate_sweep_every", time.Minute)
	v.SetDefault("rate_key_header", "")
	v.SetDefault("trust_xff", false)
	v.SetDefault("concurrency_max", 100)
	v.SetDefault("concurrency_timeout", time.Duration(0))

	v.SetDefault("log_cap", 1000)
	v.SetDefault("log_list_limit", 50)
	v.SetDefault("log_list_max", 500)
	v.SetDefault("persist_timeout", 5*time.Second)

	v.SetDefault("webhook_url", "")
	v.SetDefault("webhook_rps", 0.5)
	v.SetDefault("webhook_burst", 5)
	v.SetDefault("webhook_queue", 256)
	v.SetDefault("webhook_timeout", 5*time.Second)

	v.SetDefault("queue_backend", "file")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("rate_stats_enabled", false)
	v.SetDefault("rate_stats_prefix", "ratelimit:stats")
	v.SetDefault("rate_stats_ttl", 24*time.Hour)
	v.SetDefault("rate_stats_bucket", "minute")
	v.SetDefault("rate_stats_track_keys", false)

	v.SetDefault("allowed_origins", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 100)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 30)
	v.SetDefault("log_console", false)
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// Load lê a configuração. configPaths substitui os diretórios procurados para
// relay.yaml (padrão: "." e /etc/moderation-gateway/).
func Load(configPaths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("relay")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{".", "/etc/moderation-gateway/"}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if strings.TrimSpace(cfg.ArchiveDir) == "" {
		cfg.ArchiveDir = filepath.Join(cfg.DataDir, "archives")
	}
	cfg.QueueBackend = strings.ToLower(strings.TrimSpace(cfg.QueueBackend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.AdminKey) == "" {
		return errors.New("ADMIN_KEY is required")
	}
	if c.RateLimit <= 0 {
		return errors.New("RATE_LIMIT must be > 0")
	}
	if c.RateWindow <= 0 {
		return errors.New("RATE_WINDOW must be > 0")
	}
	if c.RateBlockDuration <= 0 {
		return errors.New("RATE_BLOCK_DURATION must be > 0")
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.LogCap <= 0 {
		return errors.New("LOG_CAP must be > 0")
	}
	if c.LogListLimit <= 0 || c.LogListMax < c.LogListLimit {
		return errors.New("LOG_LIST_LIMIT must be > 0 and <= LOG_LIST_MAX")
	}
	switch c.QueueBackend {
	case "file":
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("REDIS_ADDR is required when QUEUE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("QUEUE_BACKEND must be file or redis, got %q", c.QueueBackend)
	}
	if c.RateStatsEnabled && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New("REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	return nil
}

// Origins devolve ALLOWED_ORIGINS já separado e sem entradas vazias.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// NeedsRedis informa se algum componente usa o Redis.
func (c Config) NeedsRedis() bool {
	return c.QueueBackend == "redis" || c.RateStatsEnabled
}

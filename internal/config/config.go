package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imagelinker/internal/helpers"
)

const (
	LinkModeProxy   = "proxy"
	LinkModePresign = "presign"

	// S3 presigned URLs cannot outlive seven days.
	maxPresignExpiry = 7 * 24 * time.Hour
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Table      TableConfig      `mapstructure:"table"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Validation ValidationConfig `mapstructure:"validation"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	PublicBaseURL      string `mapstructure:"public_base_url"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
	MaxUploadSizeMB    int    `mapstructure:"max_upload_size_mb"`
}

type DatabaseConfig struct {
	DSN                  string `mapstructure:"dsn"`
	Slaves               string `mapstructure:"slaves"`
	MaxOpenConns         int    `mapstructure:"max_open_conns"`
	MaxIdleConns         int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec   int    `mapstructure:"conn_max_lifetime_sec"`
	ConnectRetries       int    `mapstructure:"connect_retries"`
	ConnectRetryDelaySec int    `mapstructure:"connect_retry_delay_sec"`
}

// TableConfig maps the external table onto image references. Only the
// records repository reads it.
type TableConfig struct {
	Name           string `mapstructure:"name"`
	IDColumn       string `mapstructure:"id_column"`
	TitleColumn    string `mapstructure:"title_column"`
	ImageURLColumn string `mapstructure:"image_url_column"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

type StorageConfig struct {
	Type      string `mapstructure:"type"`
	LocalPath string `mapstructure:"local_path"`
	Prefix    string `mapstructure:"prefix"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`

	LinkMode            string `mapstructure:"link_mode"`
	LinkSecret          string `mapstructure:"link_secret"`
	LinkBaseURL         string `mapstructure:"link_base_url"`
	SignedURLExpiryDays int    `mapstructure:"signed_url_expiry_days"`
}

func (s StorageConfig) LinkExpiry() time.Duration {
	return time.Duration(s.SignedURLExpiryDays) * 24 * time.Hour
}

type ProcessingConfig struct {
	OptimizationEnabled   bool     `mapstructure:"optimization_enabled"`
	MaxDimension          int      `mapstructure:"max_dimension"`
	Quality               int      `mapstructure:"quality"`
	MinSavingsPercent     float64  `mapstructure:"min_savings_percent"`
	ThumbnailEnabled      bool     `mapstructure:"thumbnail_enabled"`
	ThumbnailMaxDimension int      `mapstructure:"thumbnail_max_dimension"`
	ThumbnailQuality      int      `mapstructure:"thumbnail_quality"`
	AcceptedExtensions    []string `mapstructure:"accepted_extensions"`
}

type ValidationConfig struct {
	TimeoutSec   int `mapstructure:"timeout_sec"`
	Concurrency  int `mapstructure:"concurrency"`
	MaxRedirects int `mapstructure:"max_redirects"`
}

func (v ValidationConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutSec) * time.Second
}

type FetchConfig struct {
	TimeoutSec   int `mapstructure:"timeout_sec"`
	MaxRedirects int `mapstructure:"max_redirects"`
	MaxSizeMB    int `mapstructure:"max_size_mb"`
}

func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

func (f FetchConfig) MaxBytes() int64 {
	return int64(f.MaxSizeMB) * 1024 * 1024
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultProcessing returns the processing defaults used when the config
// file leaves a value out.
func DefaultProcessing() ProcessingConfig {
	return ProcessingConfig{
		OptimizationEnabled:   true,
		MaxDimension:          1920,
		Quality:               85,
		ThumbnailMaxDimension: 400,
		ThumbnailQuality:      75,
		AcceptedExtensions:    []string{".jpg", ".jpeg", ".png", ".webp"},
	}
}

func DefaultValidation() ValidationConfig {
	return ValidationConfig{TimeoutSec: 3, Concurrency: 10, MaxRedirects: 5}
}

func DefaultFetch() FetchConfig {
	return FetchConfig{TimeoutSec: 10, MaxRedirects: 5, MaxSizeMB: 20}
}

func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(appConfig)

	if err := validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("storage_type", appConfig.Storage.Type).
		Str("link_mode", appConfig.Storage.LinkMode).
		Str("table", appConfig.Table.Name).
		Int("max_dimension", appConfig.Processing.MaxDimension).
		Int("quality", appConfig.Processing.Quality).
		Bool("optimization_enabled", appConfig.Processing.OptimizationEnabled).
		Int("validation_concurrency", appConfig.Validation.Concurrency).
		Msg("Config loaded successfully via wbf")

	return appConfig, nil
}

func applyDefaults(cfg *Config) {
	p := DefaultProcessing()
	if cfg.Processing.MaxDimension <= 0 {
		cfg.Processing.MaxDimension = p.MaxDimension
	}
	if cfg.Processing.Quality <= 0 {
		cfg.Processing.Quality = p.Quality
	}
	if cfg.Processing.ThumbnailMaxDimension <= 0 {
		cfg.Processing.ThumbnailMaxDimension = p.ThumbnailMaxDimension
	}
	if cfg.Processing.ThumbnailQuality <= 0 {
		cfg.Processing.ThumbnailQuality = p.ThumbnailQuality
	}
	cfg.Processing.AcceptedExtensions = normalizeExtensions(cfg.Processing.AcceptedExtensions)
	if len(cfg.Processing.AcceptedExtensions) == 0 {
		cfg.Processing.AcceptedExtensions = p.AcceptedExtensions
	}

	v := DefaultValidation()
	if cfg.Validation.TimeoutSec <= 0 {
		cfg.Validation.TimeoutSec = v.TimeoutSec
	}
	if cfg.Validation.Concurrency <= 0 {
		cfg.Validation.Concurrency = v.Concurrency
	}
	if cfg.Validation.MaxRedirects <= 0 {
		cfg.Validation.MaxRedirects = v.MaxRedirects
	}

	f := DefaultFetch()
	if cfg.Fetch.TimeoutSec <= 0 {
		cfg.Fetch.TimeoutSec = f.TimeoutSec
	}
	if cfg.Fetch.MaxRedirects <= 0 {
		cfg.Fetch.MaxRedirects = f.MaxRedirects
	}
	if cfg.Fetch.MaxSizeMB <= 0 {
		cfg.Fetch.MaxSizeMB = f.MaxSizeMB
	}

	if cfg.Storage.LinkMode == "" {
		cfg.Storage.LinkMode = LinkModeProxy
	}
	if cfg.Storage.SignedURLExpiryDays <= 0 {
		cfg.Storage.SignedURLExpiryDays = 3650
	}
	if cfg.Storage.LinkBaseURL == "" {
		cfg.Storage.LinkBaseURL = cfg.Server.PublicBaseURL
	}

	if cfg.Table.IDColumn == "" {
		cfg.Table.IDColumn = "id"
	}
	if cfg.Table.TitleColumn == "" {
		cfg.Table.TitleColumn = "title"
	}
	if cfg.Table.ImageURLColumn == "" {
		cfg.Table.ImageURLColumn = "image_url"
	}
}

// normalizeExtensions accepts entries such as "jpg", ".PNG" or a single
// comma separated env value and returns lowercase dotted extensions.
func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, ext := range helpers.SplitAndTrim(entry, ",") {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			out = append(out, ext)
		}
	}
	return out
}

func validateConfig(cfg *Config) error {
	// Server
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.read_timeout_sec must be positive")
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		return fmt.Errorf("server.write_timeout_sec must be positive")
	}
	if cfg.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb must be positive")
	}

	// Database
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must be non-negative")
	}
	if cfg.Table.Name == "" {
		return fmt.Errorf("table.name is required")
	}

	// Storage
	if cfg.Storage.Type == "" {
		return fmt.Errorf("storage.type is required (local|s3)")
	}
	if cfg.Storage.Type != "local" && cfg.Storage.Type != "s3" {
		return fmt.Errorf("storage.type must be 'local' or 's3'")
	}
	if cfg.Storage.Type == "local" && cfg.Storage.LocalPath == "" {
		return fmt.Errorf("storage.local_path is required for local storage")
	}
	if cfg.Storage.Type == "s3" {
		if cfg.Storage.S3Endpoint == "" {
			return fmt.Errorf("storage.s3_endpoint is required for s3 storage")
		}
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
		if cfg.Storage.S3AccessKey == "" || cfg.Storage.S3SecretKey == "" {
			return fmt.Errorf("storage.s3_access_key and storage.s3_secret_key are required for s3 storage")
		}
	}
	switch cfg.Storage.LinkMode {
	case LinkModeProxy:
		if cfg.Storage.LinkSecret == "" {
			return fmt.Errorf("storage.link_secret is required for proxy links")
		}
		if cfg.Storage.LinkBaseURL == "" {
			return fmt.Errorf("storage.link_base_url or server.public_base_url is required for proxy links")
		}
	case LinkModePresign:
		if cfg.Storage.Type != "s3" {
			return fmt.Errorf("storage.link_mode 'presign' requires s3 storage")
		}
		if cfg.Storage.LinkExpiry() > maxPresignExpiry {
			return fmt.Errorf("storage.signed_url_expiry_days must be at most 7 for presigned links")
		}
	default:
		return fmt.Errorf("storage.link_mode must be 'proxy' or 'presign'")
	}

	// Processing
	if err := ValidateProcessing(cfg.Processing); err != nil {
		return err
	}

	if cfg.Logging.Level == "" {
		return fmt.Errorf("logging.level is required")
	}

	return nil
}

// ValidateProcessing checks a processing config passed in by a caller.
func ValidateProcessing(p ProcessingConfig) error {
	if p.MaxDimension <= 0 {
		return fmt.Errorf("processing.max_dimension must be positive")
	}
	if p.Quality < 1 || p.Quality > 95 {
		return fmt.Errorf("processing.quality must be between 1 and 95")
	}
	if p.ThumbnailMaxDimension <= 0 {
		return fmt.Errorf("processing.thumbnail_max_dimension must be positive")
	}
	if p.ThumbnailQuality < 1 || p.ThumbnailQuality > 95 {
		return fmt.Errorf("processing.thumbnail_quality must be between 1 and 95")
	}
	if p.MinSavingsPercent < 0 || p.MinSavingsPercent >= 100 {
		return fmt.Errorf("processing.min_savings_percent must be in [0, 100)")
	}
	if len(p.AcceptedExtensions) == 0 {
		return fmt.Errorf("processing.accepted_extensions must contain at least one extension")
	}
	return nil
}

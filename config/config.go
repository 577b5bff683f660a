// Package config loads process configuration for palmvec tools and services
// from an optional YAML file overlaid with PALMVEC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/hupe1980/palmvec/codec"
	"github.com/hupe1980/palmvec/embedding"
	"github.com/hupe1980/palmvec/gallery"
	"github.com/hupe1980/palmvec/match"
	"github.com/hupe1980/palmvec/resource"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "PALMVEC_"

// Config is the full process configuration.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" envPrefix:"EMBEDDING_"`
	Match     MatchConfig     `yaml:"match" envPrefix:"MATCH_"`
	Registry  RegistryConfig  `yaml:"registry" envPrefix:"REGISTRY_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Limits    LimitsConfig    `yaml:"limits" envPrefix:"LIMITS_"`
	Logging   LoggingConfig   `yaml:"logging" envPrefix:"LOG_"`

	// DecodeCacheSize is the number of decoded Base64 payloads kept in memory.
	DecodeCacheSize int `yaml:"decode_cache_size" env:"DECODE_CACHE_SIZE"`
	// Codec names the payload codec for registry rows and snapshots.
	Codec string `yaml:"codec" env:"CODEC"`
}

// EmbeddingConfig mirrors embedding.Config.
type EmbeddingConfig struct {
	CanonicalLength  int    `yaml:"canonical_length" env:"CANONICAL_LENGTH"`
	MinBytes         int    `yaml:"min_bytes" env:"MIN_BYTES"`
	ValidationSample int    `yaml:"validation_sample" env:"VALIDATION_SAMPLE"`
	MaxInvalid       int    `yaml:"max_invalid" env:"MAX_INVALID"`
	Policy           string `yaml:"policy" env:"POLICY"`
}

// MatchConfig mirrors match.Options.
type MatchConfig struct {
	Threshold     float64 `yaml:"threshold" env:"THRESHOLD"`
	HashStride    int     `yaml:"hash_stride" env:"HASH_STRIDE"`
	HashScale     float64 `yaml:"hash_scale" env:"HASH_SCALE"`
	HashDelimiter string  `yaml:"hash_delimiter" env:"HASH_DELIMITER"`
}

// RegistryConfig locates the SQLite registry.
type RegistryConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// StorageConfig selects the blob store for gallery snapshots.
type StorageConfig struct {
	// Backend is one of memory, local, s3 or minio.
	Backend     string `yaml:"backend" env:"BACKEND"`
	Dir         string `yaml:"dir" env:"DIR"`
	Bucket      string `yaml:"bucket" env:"BUCKET"`
	Prefix      string `yaml:"prefix" env:"PREFIX"`
	Region      string `yaml:"region" env:"REGION"`
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	PathStyle   bool   `yaml:"path_style" env:"PATH_STYLE"`
	Secure      bool   `yaml:"secure" env:"SECURE"`
	AccessKey   string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey   string `yaml:"secret_key" env:"SECRET_KEY"`
	CommitTable string `yaml:"commit_table" env:"COMMIT_TABLE"`
	Compression string `yaml:"compression" env:"COMPRESSION"`
	// CacheEntries enables an LRU read cache in front of the backend.
	CacheEntries int `yaml:"cache_entries" env:"CACHE_ENTRIES"`
}

// LimitsConfig mirrors resource.Config.
type LimitsConfig struct {
	MaxConcurrentScans int64   `yaml:"max_concurrent_scans" env:"MAX_CONCURRENT_SCANS"`
	AttemptsPerSecond  float64 `yaml:"attempts_per_second" env:"ATTEMPTS_PER_SECOND"`
	Burst              int     `yaml:"burst" env:"BURST"`
	FailFast           bool    `yaml:"fail_fast" env:"FAIL_FAST"`
}

// LoggingConfig selects the log handler.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	ec := embedding.DefaultConfig()
	mo := match.DefaultOptions()

	return Config{
		Embedding: EmbeddingConfig{
			CanonicalLength:  ec.CanonicalLength,
			MinBytes:         ec.MinBytes,
			ValidationSample: ec.ValidationSample,
			MaxInvalid:       ec.MaxInvalid,
			Policy:           ec.Policy.String(),
		},
		Match: MatchConfig{
			Threshold:     mo.Threshold,
			HashStride:    mo.HashStride,
			HashScale:     mo.HashScale,
			HashDelimiter: mo.HashDelimiter,
		},
		Registry: RegistryConfig{Path: "palmvec.db"},
		Storage: StorageConfig{
			Backend:     "local",
			Dir:         "palmvec-data",
			Compression: gallery.CompressionLZ4.String(),
		},
		Limits:  LimitsConfig{MaxConcurrentScans: 4},
		Logging: LoggingConfig{Level: "info", Format: "text"},

		DecodeCacheSize: 1024,
		Codec:           codec.Default.Name(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then PALMVEC_* environment variables. The result is
// validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv overlays PALMVEC_* environment variables onto cfg.
// Unset variables leave the current values untouched.
func ParseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// EmbeddingConfig converts to the decoder and normalizer limits.
func (c Config) EmbeddingConfig() (embedding.Config, error) {
	policy, err := embedding.ParsePolicy(c.Embedding.Policy)
	if err != nil {
		return embedding.Config{}, err
	}
	ec := embedding.Config{
		CanonicalLength:  c.Embedding.CanonicalLength,
		MinBytes:         c.Embedding.MinBytes,
		ValidationSample: c.Embedding.ValidationSample,
		MaxInvalid:       c.Embedding.MaxInvalid,
		Policy:           policy,
	}
	return ec, ec.Validate()
}

// MatchOptions converts to matcher options.
func (c Config) MatchOptions() match.Options {
	return match.Options{
		Threshold:     c.Match.Threshold,
		HashStride:    c.Match.HashStride,
		HashScale:     c.Match.HashScale,
		HashDelimiter: c.Match.HashDelimiter,
	}
}

// ResourceConfig converts to resource limits.
func (c Config) ResourceConfig() resource.Config {
	return resource.Config{
		MaxConcurrentScans: c.Limits.MaxConcurrentScans,
		AttemptsPerSecond:  c.Limits.AttemptsPerSecond,
		Burst:              c.Limits.Burst,
		FailFast:           c.Limits.FailFast,
	}
}

// PayloadCodec resolves the configured codec.
func (c Config) PayloadCodec() (codec.Codec, error) {
	cc, ok := codec.ByName(c.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", c.Codec)
	}
	return cc, nil
}

// Compression parses the snapshot compression setting.
func (c Config) Compression() (gallery.Compression, error) {
	return gallery.ParseCompression(c.Storage.Compression)
}

// Validate checks every section.
func (c Config) Validate() error {
	var errs []error

	if _, err := c.EmbeddingConfig(); err != nil {
		errs = append(errs, err)
	}
	if err := c.MatchOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Compression(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.PayloadCodec(); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "memory":
	case "local":
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir is required for the local backend"))
		}
	case "s3", "minio":
		if c.Storage.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.bucket is required for the %s backend", c.Storage.Backend))
		}
		if c.Storage.Backend == "minio" && c.Storage.Endpoint == "" {
			errs = append(errs, errors.New("storage.endpoint is required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Limits.MaxConcurrentScans < 0 || c.Limits.AttemptsPerSecond < 0 || c.Limits.Burst < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	if c.DecodeCacheSize < 0 {
		errs = append(errs, fmt.Errorf("decode_cache_size must not be negative, got %d", c.DecodeCacheSize))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

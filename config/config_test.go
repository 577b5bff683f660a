package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/palmvec/embedding"
	"github.com/hupe1980/palmvec/gallery"
	"github.com/hupe1980/palmvec/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "palmvec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	ec, err := cfg.EmbeddingConfig()
	require.NoError(t, err)
	assert.Equal(t, embedding.DefaultConfig(), ec)
	assert.Equal(t, match.DefaultOptions(), cfg.MatchOptions())

	c, err := cfg.Compression()
	require.NoError(t, err)
	assert.Equal(t, gallery.CompressionLZ4, c)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
embedding:
  policy: lenient
match:
  threshold: 0.9
storage:
  backend: minio
  bucket: palms
  endpoint: localhost:9000
  compression: zstd
limits:
  attempts_per_second: 5
logging:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lenient", cfg.Embedding.Policy)
	assert.Equal(t, 512, cfg.Embedding.CanonicalLength, "unset keys keep defaults")
	assert.Equal(t, 0.9, cfg.Match.Threshold)
	assert.Equal(t, 10, cfg.Match.HashStride)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, 5.0, cfg.ResourceConfig().AttemptsPerSecond)
	assert.Equal(t, int64(4), cfg.ResourceConfig().MaxConcurrentScans)

	ec, err := cfg.EmbeddingConfig()
	require.NoError(t, err)
	assert.Equal(t, embedding.PolicyLenient, ec.Policy)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "match:\n  threshold: 0.9\n")
	t.Setenv("PALMVEC_MATCH_THRESHOLD", "0.95")
	t.Setenv("PALMVEC_STORAGE_BACKEND", "memory")
	t.Setenv("PALMVEC_DECODE_CACHE_SIZE", "0")
	t.Setenv("PALMVEC_LOG_LEVEL", "debug")
	t.Setenv("PALMVEC_CODEC", "go-json")
	t.Setenv("PALMVEC_LIMITS_FAIL_FAST", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	pc, err := cfg.PayloadCodec()
	require.NoError(t, err)
	assert.Equal(t, "go-json", pc.Name())
	assert.True(t, cfg.ResourceConfig().FailFast)
	assert.Equal(t, 0.95, cfg.Match.Threshold)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Zero(t, cfg.DecodeCacheSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("BadYAML", func(t *testing.T) {
		_, err := Load(writeFile(t, "match: [unclosed"))
		assert.ErrorContains(t, err, "config: parse")
	})

	t.Run("BadEnv", func(t *testing.T) {
		t.Setenv("PALMVEC_MATCH_THRESHOLD", "high")
		_, err := Load("")
		assert.ErrorContains(t, err, "config: parse env")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"Policy", func(c *Config) { c.Embedding.Policy = "sloppy" }, "unknown policy"},
		{"Length", func(c *Config) { c.Embedding.CanonicalLength = 0 }, "canonical length"},
		{"Threshold", func(c *Config) { c.Match.Threshold = 1.5 }, "threshold"},
		{"Compression", func(c *Config) { c.Storage.Compression = "brotli" }, "unknown compression"},
		{"Backend", func(c *Config) { c.Storage.Backend = "ftp" }, "unknown storage backend"},
		{"LocalDir", func(c *Config) { c.Storage.Dir = "" }, "storage.dir"},
		{"S3Bucket", func(c *Config) { c.Storage.Backend = "s3" }, "storage.bucket"},
		{"MinioEndpoint", func(c *Config) {
			c.Storage.Backend = "minio"
			c.Storage.Bucket = "b"
		}, "storage.endpoint"},
		{"Limits", func(c *Config) { c.Limits.Burst = -1 }, "limits"},
		{"Cache", func(c *Config) { c.DecodeCacheSize = -1 }, "decode_cache_size"},
		{"LogFormat", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
		{"Codec", func(c *Config) { c.Codec = "msgpack" }, "unknown codec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

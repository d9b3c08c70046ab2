package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("MARGIN_THRESHOLD", "")
	t.Setenv("REFERENCE_STRATEGY", "")

	cfg := FromEnv()
	require.Equal(t, 4000, cfg.MarginThreshold)
	require.Equal(t, 2000, cfg.ThresholdMin)
	require.Equal(t, 30000, cfg.ThresholdMax)
	require.Equal(t, 1000, cfg.ThresholdStep)
	require.Equal(t, StrategyAPI, cfg.ReferenceStrategy)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MARGIN_THRESHOLD", "8000")
	t.Setenv("REFERENCE_STRATEGY", "Embedded")
	t.Setenv("CLOUDFLARE_BYPASS", "true")
	t.Setenv("RATE_LIMIT_PER_SEC", "2.5")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := FromEnv()
	require.Equal(t, 8000, cfg.MarginThreshold)
	require.Equal(t, StrategyEmbedded, cfg.ReferenceStrategy)
	require.True(t, cfg.CloudflareBypass)
	require.Equal(t, 2.5, cfg.RateLimitPerSec)
	require.Equal(t, 2, cfg.MaxRetries)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"unknown strategy", func(c *Config) { c.ReferenceStrategy = "scan" }, false},
		{"unknown fetch mode", func(c *Config) { c.FetchMode = "carrier-pigeon" }, false},
		{"threshold below range", func(c *Config) { c.MarginThreshold = 1000 }, false},
		{"inverted range", func(c *Config) { c.ThresholdMin = 50000 }, false},
		{"zero timeout", func(c *Config) { c.RequestTimeoutMs = 0 }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := FromEnv()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garimpo.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are fine in json5
		margin_threshold: 6000,
		region: "SC",
	}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garimpo.local.json5"), []byte(`{
		region: "RS",
		reference_strategy: "EMBEDDED",
	}`), 0o600))

	base := FromEnv()
	cfg, err := LoadFile(base, path)
	require.NoError(t, err)
	require.Equal(t, 6000, cfg.MarginThreshold)
	require.Equal(t, "RS", cfg.Region)
	require.Equal(t, StrategyEmbedded, cfg.ReferenceStrategy)
	require.Equal(t, base.ListingURL, cfg.ListingURL)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(FromEnv(), filepath.Join(t.TempDir(), "absent.json5"))
	require.Error(t, err)
}

func TestLoadFileExplicitZeroOverrides(t *testing.T) {
	t.Setenv("CLOUDFLARE_BYPASS", "true")
	t.Setenv("MAX_CONCURRENCY", "8")
	t.Setenv("CSV_OUTPUT_PATH", "out/deals.csv")

	path := filepath.Join(t.TempDir(), "garimpo.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		cloudflare_bypass: false,
		max_concurrency: 0,
		csv_output_path: "",
	}`), 0o600))

	base := FromEnv()
	require.True(t, base.CloudflareBypass)

	cfg, err := LoadFile(base, path)
	require.NoError(t, err)
	require.False(t, cfg.CloudflareBypass)
	require.Zero(t, cfg.MaxConcurrency)
	require.Empty(t, cfg.CSVOutputPath)
	require.True(t, base.CloudflareBypass, "base is not modified")
}

func TestLoadFileLocalOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garimpo.local.json5"), []byte(`{region: "SP"}`), 0o600))

	cfg, err := LoadFile(FromEnv(), filepath.Join(dir, "garimpo.json5"))
	require.NoError(t, err)
	require.Equal(t, "SP", cfg.Region)
}

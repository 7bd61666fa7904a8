package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	r := require.New(t)

	cfg := Defaults()
	r.NoError(cfg.ValidateAll(domain.Policies()...))
	r.Equal(cfg.UniqueVocabularySize, cfg.HotWordCount+cfg.ColdWordCount)
	// (0.8/200) / (0.2/9800) = 196
	r.InDelta(196.0, cfg.ExpectedSkew(), 1e-9)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.Policy
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults uniform", domain.Uniform, func(c *Config) {}, true},
		{"zero lines", domain.Uniform, func(c *Config) { c.TotalLines = 0 }, false},
		{"zero words per line", domain.Unique, func(c *Config) { c.WordsPerLine = 0 }, false},
		{"uniform without vocabulary", domain.Uniform, func(c *Config) { c.UniqueVocabularySize = 0 }, false},
		{"unique ignores vocabulary", domain.Unique, func(c *Config) { c.UniqueVocabularySize = 0 }, true},
		{"skew pools do not add up", domain.Skewed, func(c *Config) { c.ColdWordCount = 9_799 }, false},
		{"uniform ignores skew pools", domain.Uniform, func(c *Config) { c.ColdWordCount = 9_799 }, true},
		{"hot ratio above one", domain.Skewed, func(c *Config) { c.HotRatio = 1.2 }, false},
		{"hot ratio one with single hot word", domain.Skewed, func(c *Config) {
			c.UniqueVocabularySize, c.HotWordCount, c.ColdWordCount, c.HotRatio = 2, 1, 1, 1.0
		}, true},
		{"hot mass without hot words", domain.Skewed, func(c *Config) {
			c.HotWordCount, c.ColdWordCount = 0, 10_000
		}, false},
		{"weighted without file", domain.Weighted, func(c *Config) {}, false},
		{"weighted with file", domain.Weighted, func(c *Config) { c.WeightsFile = "counts.txt" }, true},
		{"unknown policy", domain.Policy("zipf"), func(c *Config) {}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)

			err := cfg.Validate(tt.policy)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, errors.Is(err, domain.ErrConfigInvalid), "got %v", err)
		})
	}
}

func TestLoadJSON(t *testing.T) {
	r := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	r.NoError(os.WriteFile(path, []byte(`{"total_lines": 500, "hot_ratio": 0.9, "output_dir": "out"}`), 0o644))

	cfg, err := LoadJSON(path)
	r.NoError(err)
	r.Equal(int64(500), cfg.TotalLines)
	r.Equal(0.9, cfg.HotRatio)
	r.Equal("out", cfg.OutputDir)
	r.Equal(50, cfg.WordsPerLine)

	r.NoError(os.WriteFile(path, []byte(`{"total_lines": 5, "zipf_exponent": 1.1}`), 0o644))
	_, err = LoadJSON(path)
	r.True(errors.Is(err, domain.ErrConfigInvalid))

	_, err = LoadJSON(filepath.Join(dir, "missing.json"))
	r.True(errors.Is(err, domain.ErrNotFound))
}

func TestLoadJSONKeepsExplicitZeros(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "all-cold.json")
	r.NoError(os.WriteFile(path, []byte(`{"hot_word_count": 0, "cold_word_count": 10000, "hot_ratio": 0, "progress_every": 0, "seed": 0}`), 0o644))

	cfg, err := LoadJSON(path)
	r.NoError(err)
	r.Equal(0, cfg.HotWordCount)
	r.Equal(10_000, cfg.ColdWordCount)
	r.Zero(cfg.HotRatio)
	r.Zero(cfg.ProgressEvery)
	r.Zero(cfg.Seed)
	r.Equal(int64(1_000_000), cfg.TotalLines)
	r.NoError(cfg.Validate(domain.Skewed))

	// Keys absent from the file keep the base value.
	base := Defaults()
	base.TotalLines = 42
	cfg, err = Overlay(base, path)
	r.NoError(err)
	r.Equal(int64(42), cfg.TotalLines)
	r.Zero(cfg.HotRatio)
}

// Package config holds the generation and validation parameters shared by
// the corpus generator and the distribution validator.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Config is read-only for the duration of a run; pass it by value.
type Config struct {
	TotalLines           int64   `json:"total_lines"`
	WordsPerLine         int     `json:"words_per_line"`
	UniqueVocabularySize int     `json:"unique_vocabulary_size"`
	HotWordCount         int     `json:"hot_word_count"`
	ColdWordCount        int     `json:"cold_word_count"`
	HotRatio             float64 `json:"hot_ratio"` // Probability mass of the hot pool.

	Seed          int64  `json:"seed"`
	ProgressEvery int64  `json:"progress_every"` // Lines between progress events, 0 disables them.
	OutputDir     string `json:"output_dir"`
	Gzip          bool   `json:"gzip"`
	SampleLines   int64  `json:"sample_lines"` // Validator line budget, <= 0 reads whole files.
	TopN          int    `json:"top_n"`
	WeightsFile   string `json:"weights_file"`
}

// Defaults returns the benchmark configuration: 1M lines of 50 words over a
// 10k vocabulary, with 200 hot words taking 80% of the skewed corpus.
func Defaults() Config {
	return Config{
		TotalLines:           1_000_000,
		WordsPerLine:         50,
		UniqueVocabularySize: 10_000,
		HotWordCount:         200,
		ColdWordCount:        9_800,
		HotRatio:             0.8,
		Seed:                 1,
		ProgressEvery:        100_000,
		OutputDir:            "data",
		SampleLines:          100_000,
		TopN:                 10,
	}
}

// LoadJSON reads a config file on top of Defaults().
func LoadJSON(path string) (Config, error) {
	return Overlay(Defaults(), path)
}

// Overlay decodes the config file at path over base. Only keys present in
// the file are replaced, so a file may set a field to zero. Unknown keys are
// rejected.
func Overlay(base Config, path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, domain.OpenError(path, err)
	}
	defer f.Close()

	cfg := base
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return base, &domain.CorpusError{Kind: domain.ErrConfigInvalid, Path: path, Err: err}
	}

	return cfg, nil
}

// Validate checks the parameters needed by the given policy.
func (c Config) Validate(p domain.Policy) error {
	if c.TotalLines <= 0 {
		return domain.NewConfigError("total_lines", fmt.Sprintf("must be > 0, got %d", c.TotalLines))
	}
	if c.WordsPerLine <= 0 {
		return domain.NewConfigError("words_per_line", fmt.Sprintf("must be > 0, got %d", c.WordsPerLine))
	}
	if c.ProgressEvery < 0 {
		return domain.NewConfigError("progress_every", "must not be negative")
	}
	if c.TopN < 0 {
		return domain.NewConfigError("top_n", "must not be negative")
	}

	switch p {
	case domain.Uniform:
		if c.UniqueVocabularySize <= 0 {
			return domain.NewConfigError("unique_vocabulary_size", fmt.Sprintf("must be > 0, got %d", c.UniqueVocabularySize))
		}
	case domain.Skewed:
		return c.validateSkew()
	case domain.Unique:
	case domain.Weighted:
		if strings.TrimSpace(c.WeightsFile) == "" {
			return domain.NewConfigError("weights_file", "required for the weighted policy")
		}
	default:
		return domain.NewConfigError("policy", fmt.Sprintf("unknown policy %q", p))
	}

	return nil
}

func (c Config) validateSkew() error {
	if c.HotWordCount < 0 || c.ColdWordCount < 0 {
		return domain.NewConfigError("hot_word_count/cold_word_count", "must not be negative")
	}
	if c.HotWordCount+c.ColdWordCount != c.UniqueVocabularySize {
		return domain.NewConfigError("hot_word_count/cold_word_count",
			fmt.Sprintf("%d + %d != unique_vocabulary_size %d", c.HotWordCount, c.ColdWordCount, c.UniqueVocabularySize))
	}
	if c.HotRatio < 0 || c.HotRatio > 1 {
		return domain.NewConfigError("hot_ratio", fmt.Sprintf("must be within [0, 1], got %v", c.HotRatio))
	}
	if c.HotRatio > 0 && c.HotWordCount == 0 {
		return domain.NewConfigError("hot_word_count", "no hot words to draw from")
	}
	if c.HotRatio < 1 && c.ColdWordCount == 0 {
		return domain.NewConfigError("cold_word_count", "no cold words to draw from")
	}
	return nil
}

// ExpectedSkew is the expected per-token frequency ratio of a hot word to a
// cold word: (hotRatio/hot) / ((1-hotRatio)/cold).
func (c Config) ExpectedSkew() float64 {
	if c.HotWordCount == 0 || c.ColdWordCount == 0 || c.HotRatio >= 1 {
		return 0
	}
	return (c.HotRatio / float64(c.HotWordCount)) / ((1 - c.HotRatio) / float64(c.ColdWordCount))
}

// ValidateAll validates c for each policy, stopping at the first failure.
func (c Config) ValidateAll(policies ...domain.Policy) error {
	for _, p := range policies {
		if err := c.Validate(p); err != nil {
			return errors.Wrapf(err, "invalid config for %s corpus", p)
		}
	}
	return nil
}

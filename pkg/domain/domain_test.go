package domain

import (
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCorpusErrorIs(t *testing.T) {
	r := require.New(t)

	err := errors.Wrap(NewIOError("/tmp/x.txt", os.ErrPermission), "generating uniform corpus")

	r.True(errors.Is(err, ErrIOFailure))
	r.True(errors.Is(err, os.ErrPermission))
	r.False(errors.Is(err, ErrNotFound))
	r.Equal("io", Classify(err))
	r.Contains(err.Error(), "/tmp/x.txt")

	r.Equal("not_found", Classify(NewNotFoundError("a.txt")))
	r.Equal("empty_input", Classify(NewEmptyInputError("a.txt", "no lines")))
	r.Equal("config_invalid", Classify(NewConfigError("hot_ratio", "out of range")))
	r.Equal("unknown", Classify(errors.New("boom")))
	r.Equal("", Classify(nil))
}

func TestOpenError(t *testing.T) {
	r := require.New(t)

	_, err := os.Open("/definitely/not/here.txt")
	r.True(errors.Is(OpenError("/definitely/not/here.txt", err), ErrNotFound))
	r.True(errors.Is(OpenError("x", os.ErrPermission), ErrIOFailure))
}

func TestParsePolicy(t *testing.T) {
	r := require.New(t)

	p, err := ParsePolicy(" Skewed ")
	r.NoError(err)
	r.Equal(Skewed, p)

	_, err = ParsePolicy("zipf")
	r.True(errors.Is(err, ErrConfigInvalid))

	r.Equal("unique_data.txt", Unique.FileName(false))
	r.Equal("uniform_data.txt.gz", Uniform.FileName(true))
	r.Equal([]Policy{Uniform, Skewed, Unique}, Policies())
}

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		top20 float64
		skew  SkewLevel
	}{
		{0.95, SkewHigh},
		{0.61, SkewHigh},
		{0.6, SkewMedium},
		{0.41, SkewMedium},
		{0.4, SkewLow},
		{0.2, SkewLow},
	}
	for _, tt := range tests {
		require.Equal(t, tt.skew, ClassifySkew(tt.top20), "top20=%v", tt.top20)
	}

	combiner := []struct {
		ratio  float64
		effect CombinerEffect
	}{
		{5000, CombinerExcellent},
		{10.5, CombinerExcellent},
		{10, CombinerGood},
		{3.5, CombinerGood},
		{3, CombinerMarginal},
		{1.6, CombinerMarginal},
		{1.5, CombinerIneffective},
		{1, CombinerIneffective},
	}
	for _, tt := range combiner {
		require.Equal(t, tt.effect, ClassifyCombiner(tt.ratio), "ratio=%v", tt.ratio)
	}
}

func TestGenerationStatsRates(t *testing.T) {
	r := require.New(t)

	s := &GenerationStats{Lines: 100, Words: 5000, UniqueTokens: 50, Elapsed: 2 * time.Second}
	r.Equal(50.0, s.LinesPerSec())
	r.Equal(100.0, s.CompressionEstimate())

	r.Zero((&GenerationStats{}).LinesPerSec())
	r.Zero((&GenerationStats{}).CompressionEstimate())

	v := &ValidationResult{RawBytes: 1000, SnappyBytes: 250}
	r.Equal(4.0, v.CodecRatio())
}

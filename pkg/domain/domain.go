package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Indexer defines methods for creating and loading indexes.
type Indexer interface {
	CreateIndex(ctx context.Context, mappingsJSONFile, indexName string) error
	BulkIndex(ctx context.Context, indexName string, docIDs []string, docs []interface{}) error
	PrintBulkIndexingRate()
}

// Policy selects how tokens are drawn when generating a corpus.
type Policy string

const (
	Uniform  Policy = "uniform"
	Skewed   Policy = "skewed"
	Unique   Policy = "unique"
	Weighted Policy = "weighted"
)

// Policies returns the three benchmark policies in generation order.
func Policies() []Policy {
	return []Policy{Uniform, Skewed, Unique}
}

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case Uniform, Skewed, Unique, Weighted:
		return p, nil
	}
	return "", NewConfigError("policy", fmt.Sprintf("unknown policy %q", s))
}

// FileName is the conventional corpus file name for the policy,
// e.g. `skewed_data.txt`.
func (p Policy) FileName(gzip bool) string {
	name := string(p) + "_data.txt"
	if gzip {
		name += ".gz"
	}
	return name
}

type GenerationStats struct {
	Policy       Policy        `json:"policy"`
	Path         string        `json:"path"`
	Lines        int64         `json:"lines"`
	Words        int64         `json:"words"`
	UniqueTokens int64         `json:"unique_tokens"`
	Bytes        int64         `json:"bytes"`
	Elapsed      time.Duration `json:"elapsed"`
}

func (s *GenerationStats) LinesPerSec() float64 {
	return rate(s.Lines, s.Elapsed)
}

// CompressionEstimate is the expected number of map output records per
// record left after a combiner: words / unique tokens.
func (s *GenerationStats) CompressionEstimate() float64 {
	if s.UniqueTokens == 0 {
		return 0
	}
	return float64(s.Words) / float64(s.UniqueTokens)
}

type TokenCount struct {
	Token string `json:"token"`
	Count int64  `json:"count"`
}

// ValidationResult summarizes the frequency statistics of one (sampled) corpus.
type ValidationResult struct {
	File             string         `json:"file"`
	Path             string         `json:"path"`
	FileBytes        int64          `json:"file_bytes"`
	TotalLines       int64          `json:"total_lines"`
	TotalWords       int64          `json:"total_words"`
	UniqueTokens     int64          `json:"unique_tokens"`
	UniquenessRatio  float64        `json:"uniqueness_ratio"`
	AvgWordsPerLine  float64        `json:"avg_words_per_line"`
	MeanCount        float64        `json:"mean_count"`
	MaxCount         int64          `json:"max_count"`
	MinCount         int64          `json:"min_count"`
	SkewRatio        float64        `json:"skew_ratio"`
	Top20Ratio       float64        `json:"top20_ratio"`
	TopTokens        []TokenCount   `json:"top_tokens"`
	CompressionRatio float64        `json:"compression_ratio"`
	SkewLevel        SkewLevel      `json:"skew_level"`
	CombinerEffect   CombinerEffect `json:"combiner_effect"`
	RawBytes         int64          `json:"raw_bytes"`
	SnappyBytes      int64          `json:"snappy_bytes"`
	Elapsed          time.Duration  `json:"elapsed"`
}

func (r *ValidationResult) LinesPerSec() float64 {
	return rate(r.TotalLines, r.Elapsed)
}

// CodecRatio is raw scanned bytes over their snappy-compressed size.
func (r *ValidationResult) CodecRatio() float64 {
	if r.SnappyBytes == 0 {
		return 0
	}
	return float64(r.RawBytes) / float64(r.SnappyBytes)
}

type SkewLevel string

const (
	SkewHigh   SkewLevel = "high"
	SkewMedium SkewLevel = "medium"
	SkewLow    SkewLevel = "low"
)

// ClassifySkew buckets the share of occurrences held by the top 20% of tokens.
func ClassifySkew(top20Ratio float64) SkewLevel {
	switch {
	case top20Ratio > 0.6:
		return SkewHigh
	case top20Ratio > 0.4:
		return SkewMedium
	default:
		return SkewLow
	}
}

type CombinerEffect string

const (
	CombinerExcellent   CombinerEffect = "excellent"
	CombinerGood        CombinerEffect = "good"
	CombinerMarginal    CombinerEffect = "marginal"
	CombinerIneffective CombinerEffect = "ineffective"
)

// ClassifyCombiner buckets a compression ratio (total / unique tokens).
func ClassifyCombiner(compressionRatio float64) CombinerEffect {
	switch {
	case compressionRatio > 10:
		return CombinerExcellent
	case compressionRatio > 3:
		return CombinerGood
	case compressionRatio > 1.5:
		return CombinerMarginal
	default:
		return CombinerIneffective
	}
}

// ExperimentRow is one word-count job run: the wall clock time from the
// metrics CSV joined with the counters scraped from the job log.
type ExperimentRow struct {
	Experiment         string   `json:"experiment"`
	Dataset            string   `json:"dataset"`
	Combiner           string   `json:"combiner"`
	ExecutionSeconds   float64  `json:"execution_seconds"`
	MapVcoreMillis     int64    `json:"map_vcore_millis"`
	ReduceVcoreMillis  int64    `json:"reduce_vcore_millis"`
	ReduceShuffleBytes int64    `json:"reduce_shuffle_bytes"`
	SpilledRecords     int64    `json:"spilled_records"`
	MapOutputBytes     int64    `json:"map_output_bytes"`
	TotalCPUSeconds    float64  `json:"total_cpu_seconds"`
	MissingCounters    []string `json:"missing_counters,omitempty"`
}

func rate(n int64, d time.Duration) float64 {
	secs := d.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(n) / secs
}

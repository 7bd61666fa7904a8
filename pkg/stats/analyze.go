// Package stats re-derives the frequency statistics of a generated corpus:
// uniqueness, skew and the compression a word-count combiner can achieve.
package stats

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultSampleLines is the line budget used by Analyze callers that do
	// not pick one.
	DefaultSampleLines = 100_000
	DefaultTopN        = 10

	maxLineSize   = 4 * 1024 * 1024
	progressEvery = 10_000
)

type Analyzer struct {
	SampleLines int64 // <= 0 scans the whole file
	TopN        int
	Logger      zerolog.Logger
}

func NewAnalyzer(sampleLines int64, topN int) *Analyzer {
	return &Analyzer{SampleLines: sampleLines, TopN: topN, Logger: log.Logger}
}

// Analyze scans at most sampleLines lines of the corpus at path.
func Analyze(path string, sampleLines int64) (*domain.ValidationResult, error) {
	return NewAnalyzer(sampleLines, DefaultTopN).Analyze(path)
}

// Analyze opens path (gzip-compressed if it ends in .gz), scans it and
// closes it again on every return path.
func (a *Analyzer) Analyze(path string) (*domain.ValidationResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.OpenError(path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, domain.NewIOError(path, err)
	}
	if fi.IsDir() {
		return nil, domain.NewIOError(path, os.ErrInvalid)
	}

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err == io.EOF {
			return nil, domain.NewEmptyInputError(path, "no lines")
		}
		if err != nil {
			return nil, domain.NewIOError(path, err)
		}
		defer zr.Close()
		r = zr
	}

	res, err := a.AnalyzeReader(filepath.Base(path), r)
	if err != nil {
		if ce, ok := err.(*domain.CorpusError); ok {
			ce.Path = path
		}
		return nil, err
	}

	res.Path = path
	res.FileBytes = fi.Size()

	return res, nil
}

// AnalyzeReader scans r line by line. Memory use is bounded by the frequency
// table, never by the number of lines.
func (a *Analyzer) AnalyzeReader(name string, r io.Reader) (*domain.ValidationResult, error) {
	timer := time.Now()
	table := NewFrequencyTable()

	codec := &countingWriter{}
	sw := snappy.NewBufferedWriter(codec)

	var lines, rawBytes int64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	for sc.Scan() {
		if a.SampleLines > 0 && lines >= a.SampleLines {
			break
		}

		line := sc.Bytes()
		table.AddLine(string(line))
		lines++

		rawBytes += int64(len(line)) + 1
		if _, err := sw.Write(line); err != nil {
			return nil, domain.NewIOError(name, err)
		}
		if _, err := sw.Write(newline); err != nil {
			return nil, domain.NewIOError(name, err)
		}

		if lines%progressEvery == 0 {
			a.Logger.Debug().Str("file", name).Int64("lines", lines).Msg("scanning")
		}
	}
	if err := sc.Err(); err != nil {
		return nil, domain.NewIOError(name, err)
	}
	if err := sw.Close(); err != nil {
		return nil, domain.NewIOError(name, err)
	}

	// Guard every ratio below against a zero denominator.
	if lines == 0 {
		return nil, domain.NewEmptyInputError(name, "no lines")
	}
	if table.Total() == 0 || table.Unique() == 0 {
		return nil, domain.NewEmptyInputError(name, "no tokens")
	}

	res := summarize(table, a.topN())
	res.File = name
	res.TotalLines = lines
	res.AvgWordsPerLine = float64(res.TotalWords) / float64(lines)
	res.RawBytes = rawBytes
	res.SnappyBytes = codec.n
	res.Elapsed = time.Since(timer)

	a.Logger.Info().
		Str("file", name).
		Int64("lines", lines).
		Int64("words", res.TotalWords).
		Int64("unique", res.UniqueTokens).
		Float64("compression_ratio", res.CompressionRatio).
		Dur("elapsed", res.Elapsed).
		Msg("corpus analyzed")

	return res, nil
}

func (a *Analyzer) topN() int {
	if a.TopN <= 0 {
		return DefaultTopN
	}
	return a.TopN
}

// summarize derives the ratios of a non-empty table.
func summarize(table *FrequencyTable, topN int) *domain.ValidationResult {
	total := table.Total()
	unique := table.Unique()
	sorted := table.Sorted()
	max, min := table.MaxMin()
	mean := float64(total) / float64(unique)

	top := sorted
	if topN < len(top) {
		top = top[:topN]
	}

	res := &domain.ValidationResult{
		TotalWords:       total,
		UniqueTokens:     unique,
		UniquenessRatio:  float64(unique) / float64(total),
		MeanCount:        mean,
		MaxCount:         max,
		MinCount:         min,
		SkewRatio:        float64(max) / mean,
		Top20Ratio:       TopShare(sorted, total, 0.2),
		TopTokens:        append([]domain.TokenCount(nil), top...),
		CompressionRatio: float64(total) / float64(unique),
	}
	res.SkewLevel = domain.ClassifySkew(res.Top20Ratio)
	res.CombinerEffect = domain.ClassifyCombiner(res.CompressionRatio)

	return res
}

var newline = []byte{'\n'}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

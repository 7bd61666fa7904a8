// Package report renders generation and validation results for humans and
// exports them as JSON for cmd/load.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	mb       = 1024 * 1024
	ruleSize = 70
	barWidth = 40
)

func rule(w io.Writer, c string) {
	fmt.Fprintln(w, strings.Repeat(c, ruleSize))
}

func WriteGeneration(w io.Writer, s *domain.GenerationStats) {
	fmt.Fprintln(w, "")
	rule(w, "-")
	fmt.Fprintf(w, "Corpus (%s)\n", s.Policy)
	fmt.Fprintf(w, "  Path                  : %s\n", s.Path)
	fmt.Fprintf(w, "  Size                  : %.02f MB\n", float64(s.Bytes)/mb)
	fmt.Fprintf(w, "  Lines                 : %d\n", s.Lines)
	fmt.Fprintf(w, "  Words                 : %d\n", s.Words)
	fmt.Fprintf(w, "  Unique tokens         : %d\n", s.UniqueTokens)
	fmt.Fprintf(w, "  Elapsed               : %s\n", s.Elapsed)
	fmt.Fprintf(w, "  Rate                  : %.0f lines / sec\n", s.LinesPerSec())
	fmt.Fprintln(w, "Combiner prediction")
	fmt.Fprintf(w, "  Map output records    : %d\n", s.Words)
	fmt.Fprintf(w, "  After combiner        : ~%d\n", s.UniqueTokens)
	fmt.Fprintf(w, "  Compression           : ~%.1f:1 (%s)\n", s.CompressionEstimate(), domain.ClassifyCombiner(s.CompressionEstimate()))
	rule(w, "=")
}

func WriteValidation(w io.Writer, v *domain.ValidationResult) {
	fmt.Fprintln(w, "")
	rule(w, "=")
	fmt.Fprintf(w, "  %s\n", v.File)
	rule(w, "=")
	fmt.Fprintf(w, "File size               : %.02f MB\n", float64(v.FileBytes)/mb)
	fmt.Fprintf(w, "Lines                   : %d\n", v.TotalLines)
	fmt.Fprintf(w, "Words                   : %d\n", v.TotalWords)
	fmt.Fprintf(w, "Unique tokens           : %d\n", v.UniqueTokens)
	fmt.Fprintf(w, "Uniqueness              : %.2f%%\n", 100*v.UniquenessRatio)
	fmt.Fprintf(w, "Avg words / line        : %.1f\n", v.AvgWordsPerLine)

	fmt.Fprintln(w, "\nOccurrences per token:")
	fmt.Fprintf(w, "Mean                    : %.2f\n", v.MeanCount)
	fmt.Fprintf(w, "Max                     : %d\n", v.MaxCount)
	fmt.Fprintf(w, "Min                     : %d\n", v.MinCount)
	fmt.Fprintf(w, "Skew (max / mean)       : %.2f\n", v.SkewRatio)
	fmt.Fprintf(w, "Top 20%% share           : %.1f%%\n", 100*v.Top20Ratio)
	fmt.Fprintf(w, "Skew level              : %s\n", v.SkewLevel)

	fmt.Fprintf(w, "\nTop %d tokens:\n", len(v.TopTokens))
	for i, tc := range v.TopTokens {
		var pct float64
		if v.TotalWords > 0 {
			pct = 100 * float64(tc.Count) / float64(v.TotalWords)
		}
		n := int(pct * 0.5)
		if n > barWidth {
			n = barWidth
		}
		fmt.Fprintf(w, "%2d. %-20s %8d (%5.2f%%) %s\n", i+1, tc.Token, tc.Count, pct, strings.Repeat("#", n))
	}

	fmt.Fprintln(w, "\nCombiner prediction:")
	fmt.Fprintf(w, "Map output records      : %d\n", v.TotalWords)
	fmt.Fprintf(w, "After combiner          : %d\n", v.UniqueTokens)
	fmt.Fprintf(w, "Compression             : %.2f:1\n", v.CompressionRatio)
	fmt.Fprintf(w, "Effect                  : %s\n", v.CombinerEffect)
	fmt.Fprintf(w, "Snappy codec ratio      : %.2f:1\n", v.CodecRatio())

	fmt.Fprintf(w, "\nElapsed                 : %s\n", v.Elapsed)
	fmt.Fprintf(w, "Rate                    : %.0f lines / sec\n", v.LinesPerSec())
	rule(w, "=")
}

// WriteComparison prints one row per validated corpus.
func WriteComparison(w io.Writer, results []*domain.ValidationResult) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%-22s %14s %12s %12s %10s\n", "Corpus", "Unique tokens", "Compression", "Top 20%", "Skew")
	rule(w, "-")
	for _, v := range results {
		fmt.Fprintf(w, "%-22s %14d %10.1f:1 %11.1f%% %10s\n",
			v.File, v.UniqueTokens, v.CompressionRatio, 100*v.Top20Ratio, v.SkewLevel)
	}
	fmt.Fprintln(w, "")
}

func WriteExperiments(w io.Writer, rows []domain.ExperimentRow) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%-28s %10s %10s %14s %12s %16s\n", "Experiment", "Wall (s)", "CPU (s)", "Shuffle bytes", "Spilled", "Map out bytes")
	rule(w, "-")
	for _, e := range rows {
		fmt.Fprintf(w, "%-28s %10.2f %10.2f %14d %12d %16d\n",
			e.Experiment, e.ExecutionSeconds, e.TotalCPUSeconds, e.ReduceShuffleBytes, e.SpilledRecords, e.MapOutputBytes)
		if len(e.MissingCounters) > 0 {
			fmt.Fprintf(w, "  (missing counters, reported as 0: %s)\n", strings.Join(e.MissingCounters, ", "))
		}
	}
	fmt.Fprintln(w, "")
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not marshal report")
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Export is the JSON document written by the CLIs and read by cmd/load.
type Export struct {
	Generation  []*domain.GenerationStats  `json:"generation,omitempty"`
	Validation  []*domain.ValidationResult `json:"validation,omitempty"`
	Experiments []domain.ExperimentRow     `json:"experiments,omitempty"`
	Warnings    []string                   `json:"warnings,omitempty"`
}

// ReadExport decodes a document written with WriteJSON(w, Export{...}).
func ReadExport(r io.Reader) (*Export, error) {
	e := new(Export)
	if err := json.NewDecoder(r).Decode(e); err != nil {
		return nil, errors.Wrap(err, "could not decode export")
	}
	return e, nil
}

// WriteJSONFile writes v as indented JSON to path, or to stdout when path
// is "-".
func WriteJSONFile(path string, v interface{}) error {
	if path == "-" {
		return WriteJSON(os.Stdout, v)
	}

	f, err := os.Create(path)
	if err != nil {
		return domain.NewIOError(path, err)
	}
	if err := WriteJSON(f, v); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return domain.NewIOError(path, err)
	}
	return nil
}

// ReadExportFile reads an export written by WriteJSONFile.
func ReadExportFile(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.OpenError(path, err)
	}
	defer f.Close()

	e, err := ReadExport(f)
	if err != nil {
		return nil, &domain.CorpusError{Kind: domain.ErrConfigInvalid, Path: path, Err: err}
	}
	return e, nil
}

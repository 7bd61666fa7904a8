package loader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/anrid/combinerbench/pkg/stats"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultSuffixes selects corpus files when validating a whole directory.
var DefaultSuffixes = []string{".txt", ".txt.gz"}

// CorpusPaths returns the conventional uniform, skewed and unique corpus
// files in dir, whether or not they exist.
func CorpusPaths(dir string, gzip bool) []string {
	var paths []string
	for _, p := range domain.Policies() {
		paths = append(paths, filepath.Join(dir, p.FileName(gzip)))
	}
	return paths
}

type ValidateFilesParams struct {
	Paths       []string // Explicit files; take precedence over Dir.
	Dir         string   // Listed for files with one of Suffixes when Paths is empty.
	Suffixes    []string
	SampleLines int64
	TopN        int
	Verbose     bool
	Logger      *zerolog.Logger
	EachResult  func(filesTotal int, res *domain.ValidationResult) error
}

// Batch is the outcome of validating several corpora in sequence.
type Batch struct {
	Results  []*domain.ValidationResult
	Warnings []string
	Elapsed  time.Duration
}

// ValidateFiles analyzes each corpus in turn. A missing file is logged as a
// warning and skipped; any other failure aborts the batch. The batch fails
// with ErrEmptyInput when no file could be validated.
func ValidateFiles(p ValidateFilesParams) (*Batch, error) {
	logger := log.Logger
	if p.Logger != nil {
		logger = *p.Logger
	}
	timer := time.Now()
	batch := new(Batch)

	files := p.Paths
	if len(files) == 0 {
		var err error
		files, err = listCorpusFiles(p.Dir, p.Suffixes, p.Verbose, logger)
		if err != nil {
			return nil, err
		}
	}

	analyzer := stats.NewAnalyzer(p.SampleLines, p.TopN)
	analyzer.Logger = logger

	for _, f := range files {
		if p.Verbose {
			logger.Info().Str("file", f).Msg("validating corpus")
		}

		res, err := analyzer.Analyze(f)
		if errors.Is(err, domain.ErrNotFound) {
			batch.Warnings = append(batch.Warnings, err.Error())
			logger.Warn().Str("file", f).Str("code", domain.Classify(err)).Msg("corpus missing, skipping")
			continue
		}
		if err != nil {
			return batch, errors.Wrapf(err, "validating %s", f)
		}

		batch.Results = append(batch.Results, res)

		if p.EachResult != nil {
			if err := p.EachResult(len(batch.Results), res); err != nil {
				return batch, errors.Wrap(err, "got error when calling EachResult function")
			}
		}
	}

	batch.Elapsed = time.Since(timer)

	if len(batch.Results) == 0 {
		return batch, domain.NewEmptyInputError(p.Dir, "no corpus validated")
	}

	logger.Info().
		Int("files", len(batch.Results)).
		Int("warnings", len(batch.Warnings)).
		Dur("elapsed", batch.Elapsed).
		Msg("validation done")

	return batch, nil
}

func listCorpusFiles(dir string, suffixes []string, verbose bool, logger zerolog.Logger) ([]string, error) {
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}

	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.OpenError(dir, err)
	}

	var files []string

	for _, de := range des {
		if de.IsDir() {
			if verbose {
				logger.Debug().Str("dir", de.Name()).Msg("skipping dir")
			}
			continue
		}
		if !hasAnySuffix(de.Name(), suffixes) {
			if verbose {
				logger.Debug().Str("file", de.Name()).Msg("skipping file")
			}
			continue
		}

		files = append(files, filepath.Join(dir, de.Name()))
	}

	sort.Strings(files)

	return files, nil
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

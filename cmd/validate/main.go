package main

import (
	"fmt"
	"os"

	"github.com/anrid/combinerbench/pkg/config"
	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/anrid/combinerbench/pkg/loader"
	"github.com/anrid/combinerbench/pkg/report"
	"github.com/anrid/combinerbench/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var (
	dir         = pflag.String("dir", "data/", "Directory with the uniform, skewed and unique corpora (used when no files are given)")
	scan        = pflag.Bool("scan", false, "Validate every corpus file found in --dir instead of the three named ones")
	gzipped     = pflag.Bool("gzip", false, "Look for gzip compressed corpora (*.txt.gz) in --dir")
	sampleLines = pflag.Int64("sample-lines", config.Defaults().SampleLines, "Lines to read per corpus, 0 reads whole files")
	topN        = pflag.Int("top", config.Defaults().TopN, "Number of top tokens to report")
	jsonOut     = pflag.String("json", "", "Write validation results as JSON to this file ('-' for stdout)")
	dumpResult  = pflag.Bool("dump", false, "Dump the first validation result")
	logLevel    = pflag.String("log-level", "info", "Log level")
	verbose     = pflag.BoolP("verbose", "v", false, "Verbose output")
)

func main() {
	pflag.Parse()

	if err := util.SetupLogging(os.Stderr, *logLevel); err != nil {
		pflag.Usage()
		log.Fatal().Err(err).Msg("incorrect --log-level arg")
	}

	paths := pflag.Args()
	if len(paths) == 0 && *dir == "" {
		pflag.Usage()
		log.Fatal().Msg("missing --dir arg or corpus files")
	}

	if len(paths) == 0 && !*scan {
		paths = loader.CorpusPaths(*dir, *gzipped)
	}

	batch, err := loader.ValidateFiles(loader.ValidateFilesParams{
		Paths:       paths,
		Dir:         *dir,
		Suffixes:    loader.DefaultSuffixes,
		SampleLines: *sampleLines,
		TopN:        *topN,
		Verbose:     *verbose,
		EachResult: func(filesTotal int, res *domain.ValidationResult) error {
			report.WriteValidation(os.Stdout, res)
			if *dumpResult && filesTotal == 1 {
				util.Dump(os.Stdout, res)
			}
			return nil
		},
	})
	if err != nil {
		log.Fatal().Err(err).Str("code", domain.Classify(err)).Msg("validation failed")
	}

	for _, w := range batch.Warnings {
		fmt.Printf("WARNING: %s\n", w)
	}

	report.WriteComparison(os.Stdout, batch.Results)
	fmt.Printf("Validated %d corpora in %s\n", len(batch.Results), batch.Elapsed)

	if *jsonOut != "" {
		e := report.Export{Validation: batch.Results, Warnings: batch.Warnings}
		if err := report.WriteJSONFile(*jsonOut, e); err != nil {
			log.Fatal().Err(err).Msg("could not write JSON export")
		}
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anrid/combinerbench/pkg/config"
	"github.com/anrid/combinerbench/pkg/datagen"
	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/anrid/combinerbench/pkg/report"
	"github.com/anrid/combinerbench/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var (
	def   = config.Defaults()
	flags = def

	configFile = pflag.String("config", "", "JSON config file, explicit flags take precedence")
	policy     = pflag.String("policy", "all", "Corpus to generate, available: ['all', 'uniform', 'skewed', 'unique', 'weighted']")
	logLevel   = pflag.String("log-level", "info", "Log level")
	jsonOut    = pflag.String("json", "", "Write generation stats as JSON to this file ('-' for stdout)")
)

func init() {
	pflag.Int64Var(&flags.TotalLines, "lines", def.TotalLines, "Lines per corpus")
	pflag.IntVar(&flags.WordsPerLine, "words-per-line", def.WordsPerLine, "Words per line")
	pflag.IntVar(&flags.UniqueVocabularySize, "vocab", def.UniqueVocabularySize, "Vocabulary size of the uniform corpus")
	pflag.IntVar(&flags.HotWordCount, "hot-words", def.HotWordCount, "Hot pool size of the skewed corpus")
	pflag.IntVar(&flags.ColdWordCount, "cold-words", def.ColdWordCount, "Cold pool size of the skewed corpus")
	pflag.Float64Var(&flags.HotRatio, "hot-ratio", def.HotRatio, "Share of skewed corpus tokens drawn from the hot pool")
	pflag.Int64Var(&flags.Seed, "seed", def.Seed, "Random seed")
	pflag.Int64Var(&flags.ProgressEvery, "progress-every", def.ProgressEvery, "Log progress every N lines, 0 disables")
	pflag.StringVar(&flags.OutputDir, "dir", def.OutputDir, "Output directory")
	pflag.BoolVar(&flags.Gzip, "gzip", def.Gzip, "Write gzip compressed corpora")
	pflag.StringVar(&flags.WeightsFile, "weights", def.WeightsFile, "Word count file (word and count per line) for the weighted corpus")
}

func main() {
	pflag.Parse()

	if err := util.SetupLogging(os.Stderr, *logLevel); err != nil {
		pflag.Usage()
		log.Fatal().Err(err).Msg("incorrect --log-level arg")
	}

	cfg, err := resolveConfig()
	if err != nil {
		log.Fatal().Err(err).Str("code", domain.Classify(err)).Msg("could not load config")
	}

	var all []*domain.GenerationStats

	if *policy == "all" {
		all, err = datagen.New(cfg).GenerateAll()
	} else {
		var p domain.Policy
		if p, err = domain.ParsePolicy(*policy); err != nil {
			pflag.Usage()
			log.Fatal().Err(err).Msg("incorrect --policy arg")
		}
		all, err = generateOne(cfg, p)
	}

	for _, s := range all {
		report.WriteGeneration(os.Stdout, s)
	}
	if err != nil {
		log.Fatal().Err(err).Str("code", domain.Classify(err)).Msg("generation failed")
	}

	fmt.Printf("\nGenerated %d corpora in %s\n", len(all), cfg.OutputDir)

	if *jsonOut != "" {
		if err := report.WriteJSONFile(*jsonOut, report.Export{Generation: all}); err != nil {
			log.Fatal().Err(err).Msg("could not write JSON export")
		}
	}
}

// resolveConfig layers defaults, the --config file and explicitly set flags.
func resolveConfig() (config.Config, error) {
	cfg := config.Defaults()

	if *configFile != "" {
		var err error
		if cfg, err = config.LoadJSON(*configFile); err != nil {
			return cfg, err
		}
	}

	pflag.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "lines":
			cfg.TotalLines = flags.TotalLines
		case "words-per-line":
			cfg.WordsPerLine = flags.WordsPerLine
		case "vocab":
			cfg.UniqueVocabularySize = flags.UniqueVocabularySize
		case "hot-words":
			cfg.HotWordCount = flags.HotWordCount
		case "cold-words":
			cfg.ColdWordCount = flags.ColdWordCount
		case "hot-ratio":
			cfg.HotRatio = flags.HotRatio
		case "seed":
			cfg.Seed = flags.Seed
		case "progress-every":
			cfg.ProgressEvery = flags.ProgressEvery
		case "dir":
			cfg.OutputDir = flags.OutputDir
		case "gzip":
			cfg.Gzip = flags.Gzip
		case "weights":
			cfg.WeightsFile = flags.WeightsFile
		}
	})

	return cfg, nil
}

func generateOne(cfg config.Config, p domain.Policy) ([]*domain.GenerationStats, error) {
	if err := cfg.Validate(p); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, domain.NewIOError(cfg.OutputDir, err)
	}

	s, err := datagen.New(cfg).Generate(p, filepath.Join(cfg.OutputDir, p.FileName(cfg.Gzip)))
	if err != nil {
		return nil, err
	}
	return []*domain.GenerationStats{s}, nil
}

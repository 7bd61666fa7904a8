package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/anrid/combinerbench/pkg/experiment"
	"github.com/anrid/combinerbench/pkg/report"
	"github.com/anrid/combinerbench/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var (
	cols = experiment.DefaultColumns()

	resultsDir = pflag.String("results-dir", "results/", "Directory with the job logs and the metrics CSV")
	csvFile    = pflag.String("csv", "", "Metrics CSV (default: <results-dir>/"+experiment.DefaultCSVFile+")")
	expCol     = pflag.String("experiment-column", cols.Experiment, "CSV column holding the experiment name")
	timeCol    = pflag.String("time-column", cols.ExecutionTime, "CSV column holding the execution time in seconds")
	names      = pflag.StringSlice("experiments", nil, "Experiments to read logs for (default: the six combiner runs)")
	jsonOut    = pflag.String("json", "", "Write joined rows as JSON to this file ('-' for stdout)")
	logLevel   = pflag.String("log-level", "info", "Log level")
)

func main() {
	pflag.Parse()

	if err := util.SetupLogging(os.Stderr, *logLevel); err != nil {
		pflag.Usage()
		log.Fatal().Err(err).Msg("incorrect --log-level arg")
	}

	if *resultsDir == "" {
		pflag.Usage()
		log.Fatal().Msg("missing --results-dir arg")
	}

	path := *csvFile
	if path == "" {
		path = filepath.Join(*resultsDir, experiment.DefaultCSVFile)
	}

	rows, err := experiment.LoadMetricsCSV(path, experiment.ColumnMapping{
		Experiment:    *expCol,
		ExecutionTime: *timeCol,
	})
	if err != nil {
		log.Fatal().Err(err).Str("code", domain.Classify(err)).Msg("could not read metrics CSV")
	}

	logs, warnings, err := experiment.ReadLogs(experiment.ReadLogsParams{
		Dir:   *resultsDir,
		Names: *names,
	})
	if err != nil {
		log.Fatal().Err(err).Str("code", domain.Classify(err)).Msg("could not read job logs")
	}

	joined, err := experiment.Join(rows, logs)
	if err != nil {
		log.Fatal().Err(err).Str("code", domain.Classify(err)).Msg("could not join metrics and logs")
	}

	for _, w := range warnings {
		fmt.Printf("WARNING: %s\n", w)
	}
	report.WriteExperiments(os.Stdout, joined)

	if *jsonOut != "" {
		if err := report.WriteJSONFile(*jsonOut, report.Export{Experiments: joined, Warnings: warnings}); err != nil {
			log.Fatal().Err(err).Msg("could not write JSON export")
		}
	}
}

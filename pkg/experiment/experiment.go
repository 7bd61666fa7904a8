// Package experiment joins the word-count job logs with the metrics CSV
// produced by the job runner.
package experiment

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCSVFile   = "performance_metrics.csv"
	DefaultLogSuffix = ".log"
)

// Counter maps a job counter line to a field of LogMetrics.
type Counter struct {
	Name    string
	Pattern *regexp.Regexp
	set     func(m *LogMetrics, v int64)
}

// Counters are applied once per log, in order.
var Counters = []Counter{
	{
		Name:    "Total vcore-milliseconds taken by all map tasks",
		Pattern: regexp.MustCompile(`Total vcore-milliseconds taken by all map tasks=(\d+)`),
		set:     func(m *LogMetrics, v int64) { m.MapVcoreMillis = v },
	},
	{
		Name:    "Total vcore-milliseconds taken by all reduce tasks",
		Pattern: regexp.MustCompile(`Total vcore-milliseconds taken by all reduce tasks=(\d+)`),
		set:     func(m *LogMetrics, v int64) { m.ReduceVcoreMillis = v },
	},
	{
		Name:    "Reduce shuffle bytes",
		Pattern: regexp.MustCompile(`Reduce shuffle bytes=(\d+)`),
		set:     func(m *LogMetrics, v int64) { m.ReduceShuffleBytes = v },
	},
	{
		Name:    "Spilled Records",
		Pattern: regexp.MustCompile(`Spilled Records=(\d+)`),
		set:     func(m *LogMetrics, v int64) { m.SpilledRecords = v },
	},
	{
		Name:    "Map output bytes",
		Pattern: regexp.MustCompile(`Map output bytes=(\d+)`),
		set:     func(m *LogMetrics, v int64) { m.MapOutputBytes = v },
	},
}

// LogMetrics holds the counters scraped from one job log. Counters missing
// from the log are left at 0 and listed in Missing.
type LogMetrics struct {
	Experiment         string
	Dataset            string
	Combiner           string
	MapVcoreMillis     int64
	ReduceVcoreMillis  int64
	ReduceShuffleBytes int64
	SpilledRecords     int64
	MapOutputBytes     int64
	Missing            []string
}

// DefaultExperiments lists the six runs of the combiner experiment.
func DefaultExperiments() []string {
	var names []string
	for _, ds := range []string{"skewed", "uniform", "unique"} {
		for _, cb := range []string{"with", "without"} {
			names = append(names, ds+"_"+cb+"_combiner")
		}
	}
	return names
}

// Dataset derives the dataset label from an experiment or log name.
func Dataset(name string) string {
	switch {
	case strings.Contains(name, "skewed"):
		return "Skewed"
	case strings.Contains(name, "uniform"):
		return "Uniform"
	default:
		return "Unique"
	}
}

func Combiner(name string) string {
	if strings.Contains(name, "without") {
		return "Without Combiner"
	}
	return "With Combiner"
}

// ParseLog extracts the job counters from the text of a log. The name may
// carry the .log suffix.
func ParseLog(name, text string) *LogMetrics {
	exp := strings.TrimSuffix(filepath.Base(name), DefaultLogSuffix)
	m := &LogMetrics{
		Experiment: exp,
		Dataset:    Dataset(exp),
		Combiner:   Combiner(exp),
	}

	for _, c := range Counters {
		sub := c.Pattern.FindStringSubmatch(text)
		if sub == nil {
			m.Missing = append(m.Missing, c.Name)
			continue
		}
		v, err := strconv.ParseInt(sub[1], 10, 64)
		if err != nil {
			// Overflowing counter, treat like a missing one.
			m.Missing = append(m.Missing, c.Name)
			continue
		}
		c.set(m, v)
	}

	return m
}

// ReadLogsParams controls ReadLogs. Names are experiment names, the .log
// suffix is added when missing.
type ReadLogsParams struct {
	Dir    string
	Names  []string
	Logger *zerolog.Logger
}

// ReadLogs parses the job logs of the named experiments. Missing logs are
// skipped with a warning. It fails with ErrEmptyInput when no log could be
// read.
func ReadLogs(p ReadLogsParams) ([]*LogMetrics, []string, error) {
	logger := log.Logger
	if p.Logger != nil {
		logger = *p.Logger
	}
	names := p.Names
	if len(names) == 0 {
		names = DefaultExperiments()
	}

	var (
		logs     []*LogMetrics
		warnings []string
	)

	for _, n := range names {
		if !strings.HasSuffix(n, DefaultLogSuffix) {
			n += DefaultLogSuffix
		}
		path := filepath.Join(p.Dir, n)

		data, err := os.ReadFile(path)
		if err != nil {
			err = domain.OpenError(path, err)
			if errors.Is(err, domain.ErrNotFound) {
				warnings = append(warnings, err.Error())
				logger.Warn().Str("file", path).Msg("job log missing, skipping")
				continue
			}
			return nil, warnings, err
		}

		m := ParseLog(n, string(data))
		if len(m.Missing) > 0 {
			logger.Warn().Str("file", path).Strs("missing", m.Missing).Msg("counters not found in job log, using 0")
		}
		logs = append(logs, m)
	}

	if len(logs) == 0 {
		return nil, warnings, domain.NewEmptyInputError(p.Dir, "no job log parsed")
	}

	return logs, warnings, nil
}

// Join inner-joins metrics CSV rows with parsed logs on the experiment name.
// Rows keep the CSV order.
func Join(rows []MetricsRow, logs []*LogMetrics) ([]domain.ExperimentRow, error) {
	byName := make(map[string]*LogMetrics, len(logs))
	for _, l := range logs {
		byName[l.Experiment] = l
	}

	var out []domain.ExperimentRow
	var csvNames []string

	for _, r := range rows {
		csvNames = append(csvNames, r.Experiment)

		l, ok := byName[r.Experiment]
		if !ok {
			continue
		}
		out = append(out, domain.ExperimentRow{
			Experiment:         r.Experiment,
			Dataset:            l.Dataset,
			Combiner:           l.Combiner,
			ExecutionSeconds:   r.ExecutionSeconds,
			MapVcoreMillis:     l.MapVcoreMillis,
			ReduceVcoreMillis:  l.ReduceVcoreMillis,
			ReduceShuffleBytes: l.ReduceShuffleBytes,
			SpilledRecords:     l.SpilledRecords,
			MapOutputBytes:     l.MapOutputBytes,
			TotalCPUSeconds:    float64(l.MapVcoreMillis+l.ReduceVcoreMillis) / 1000,
			MissingCounters:    l.Missing,
		})
	}

	if len(out) == 0 {
		var logNames []string
		for _, l := range logs {
			logNames = append(logNames, l.Experiment)
		}
		return nil, domain.NewEmptyInputError("", "no experiment in both the metrics CSV "+
			strings.Join(csvNames, ",")+" and the job logs "+strings.Join(logNames, ","))
	}

	return out, nil
}

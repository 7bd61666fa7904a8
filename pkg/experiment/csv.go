package experiment

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/pkg/errors"
)

// ColumnMapping names the metrics CSV columns holding each logical field.
type ColumnMapping struct {
	Experiment    string
	ExecutionTime string
}

// DefaultColumns matches the header written by the job runner.
func DefaultColumns() ColumnMapping {
	return ColumnMapping{
		Experiment:    "实验名称",
		ExecutionTime: "执行时间(秒)",
	}
}

// MetricsRow is one row of the metrics CSV.
type MetricsRow struct {
	Experiment       string
	ExecutionSeconds float64
}

// LoadMetricsCSV reads the metrics CSV at path.
func LoadMetricsCSV(path string, m ColumnMapping) ([]MetricsRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.OpenError(path, err)
	}
	defer f.Close()

	rows, err := ReadMetricsCSV(f, m)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return rows, nil
}

// ReadMetricsCSV resolves the mapped columns against the header once, then
// reads every row. An unresolved column is a config error.
func ReadMetricsCSV(r io.Reader, m ColumnMapping) ([]MetricsRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, domain.NewEmptyInputError("", "metrics CSV has no header")
	}
	if err != nil {
		return nil, domain.NewIOError("", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	expCol, err := resolveColumn(header, m.Experiment, "experiment column")
	if err != nil {
		return nil, err
	}
	timeCol, err := resolveColumn(header, m.ExecutionTime, "execution time column")
	if err != nil {
		return nil, err
	}

	var rows []MetricsRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewIOError("", err)
		}

		name := strings.TrimSpace(rec[expCol])
		if name == "" {
			continue
		}
		secs, err := strconv.ParseFloat(strings.TrimSpace(rec[timeCol]), 64)
		if err != nil {
			return nil, domain.NewConfigError(m.ExecutionTime, "line "+strconv.Itoa(line)+": "+err.Error())
		}
		rows = append(rows, MetricsRow{Experiment: name, ExecutionSeconds: secs})
	}

	if len(rows) == 0 {
		return nil, domain.NewEmptyInputError("", "metrics CSV has no rows")
	}
	return rows, nil
}

func resolveColumn(header []string, name, what string) (int, error) {
	if name == "" {
		return 0, domain.NewConfigError(what, "no column name given")
	}
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i, nil
		}
	}
	return 0, domain.NewConfigError(what, "column "+strconv.Quote(name)+" not in header "+strings.Join(header, ","))
}

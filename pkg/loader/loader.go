// Loader package handles validating corpora and loading generation,
// validation and experiment results into a search engine.
package loader

import (
	"context"
	"fmt"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/anrid/combinerbench/pkg/report"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Document kinds stored in the results index.
const (
	KindGeneration = "generation"
	KindValidation = "validation"
	KindExperiment = "experiment"
)

// Document wraps one result with the run it belongs to.
type Document struct {
	ID         string                   `json:"id"`
	RunID      string                   `json:"run_id"`
	Kind       string                   `json:"kind"`
	Generation *domain.GenerationStats  `json:"generation,omitempty"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
	Experiment *domain.ExperimentRow    `json:"experiment,omitempty"`
}

type Loader struct {
	indexName string
	maxBulk   int
	runID     string
	i         domain.Indexer
	docs      []interface{}
	docIDs    []string
	total     int
}

// New returns a Loader tagging every document with a fresh run ID.
func New(indexName string, maxBulk int, i domain.Indexer) *Loader {
	if maxBulk <= 0 {
		maxBulk = 500
	}
	return &Loader{indexName: indexName, maxBulk: maxBulk, runID: uuid.NewString(), i: i}
}

func (l *Loader) RunID() string { return l.runID }

func (l *Loader) Total() int { return l.total }

func (l *Loader) AddGeneration(ctx context.Context, s *domain.GenerationStats) error {
	return l.add(ctx, &Document{Kind: KindGeneration, Generation: s}, string(s.Policy))
}

func (l *Loader) AddValidation(ctx context.Context, v *domain.ValidationResult) error {
	return l.add(ctx, &Document{Kind: KindValidation, Validation: v}, v.File)
}

func (l *Loader) AddExperiment(ctx context.Context, e *domain.ExperimentRow) error {
	return l.add(ctx, &Document{Kind: KindExperiment, Experiment: e}, e.Experiment)
}

func (l *Loader) add(ctx context.Context, d *Document, key string) error {
	d.RunID = l.runID
	d.ID = fmt.Sprintf("%s:%s:%s", l.runID, d.Kind, key)

	l.docs = append(l.docs, d)
	l.docIDs = append(l.docIDs, d.ID)
	l.total++

	if len(l.docs) >= l.maxBulk {
		return l.Flush(ctx)
	}

	return nil
}

// Flush bulk indexes any buffered documents.
func (l *Loader) Flush(ctx context.Context) error {
	if len(l.docs) == 0 {
		return nil
	}

	if err := l.i.BulkIndex(ctx, l.indexName, l.docIDs, l.docs); err != nil {
		return err
	}

	log.Info().Str("index", l.indexName).Int("docs", len(l.docs)).Int("total", l.total).Msg("bulk indexed")

	l.docs = l.docs[:0]
	l.docIDs = l.docIDs[:0]

	return nil
}

// AddExport queues every result of an export written by the CLIs.
func (l *Loader) AddExport(ctx context.Context, e *report.Export) error {
	for _, s := range e.Generation {
		if err := l.AddGeneration(ctx, s); err != nil {
			return err
		}
	}
	for _, v := range e.Validation {
		if err := l.AddValidation(ctx, v); err != nil {
			return err
		}
	}
	for i := range e.Experiments {
		if err := l.AddExperiment(ctx, &e.Experiments[i]); err != nil {
			return err
		}
	}
	return nil
}

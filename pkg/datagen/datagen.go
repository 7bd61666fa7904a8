// Package datagen writes synthetic word-count corpora whose token
// frequencies follow a chosen policy: uniform, skewed (hot/cold), unique or
// weighted by an existing word-count result.
package datagen

import (
	"bufio"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/anrid/combinerbench/pkg/config"
	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const writeBufferSize = 1 << 20

type Generator struct {
	Config config.Config
	Logger zerolog.Logger
}

func New(cfg config.Config) *Generator {
	return &Generator{Config: cfg, Logger: log.Logger}
}

// Generate writes one corpus for policy to dest using the global logger.
func Generate(policy domain.Policy, cfg config.Config, dest string) (*domain.GenerationStats, error) {
	return New(cfg).Generate(policy, dest)
}

// GenerateAll writes the uniform, skewed and unique corpora into
// cfg.OutputDir, stopping at the first failure.
func (g *Generator) GenerateAll() ([]*domain.GenerationStats, error) {
	if err := g.Config.ValidateAll(domain.Policies()...); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.Config.OutputDir, 0o755); err != nil {
		return nil, domain.NewIOError(g.Config.OutputDir, err)
	}

	var all []*domain.GenerationStats
	for _, p := range domain.Policies() {
		s, err := g.Generate(p, filepath.Join(g.Config.OutputDir, p.FileName(g.Config.Gzip)))
		if err != nil {
			return all, errors.Wrapf(err, "generating %s corpus", p)
		}
		all = append(all, s)
	}

	return all, nil
}

// Generate writes exactly TotalLines lines of WordsPerLine tokens to dest.
// The corpus is written to a temporary file next to dest and renamed into
// place, so a failed run never leaves a partial corpus behind.
func (g *Generator) Generate(policy domain.Policy, dest string) (*domain.GenerationStats, error) {
	if err := g.Config.Validate(policy); err != nil {
		return nil, err
	}

	p, unique, err := g.newPicker(policy)
	if err != nil {
		return nil, err
	}

	g.Logger.Info().
		Str("policy", string(policy)).
		Str("path", dest).
		Int64("lines", g.Config.TotalLines).
		Int("words_per_line", g.Config.WordsPerLine).
		Int64("unique_tokens", unique).
		Msg("generating corpus")

	stats := &domain.GenerationStats{
		Policy:       policy,
		Path:         dest,
		UniqueTokens: unique,
	}

	if err := g.write(stats, p); err != nil {
		return nil, err
	}

	return stats, nil
}

// Each policy gets its own seed so that corpora generated in one run are
// independent of each other yet reproducible.
func (g *Generator) seed(policy domain.Policy) int64 {
	switch policy {
	case domain.Skewed:
		return g.Config.Seed + 1
	case domain.Unique:
		return g.Config.Seed + 2
	case domain.Weighted:
		return g.Config.Seed + 3
	}
	return g.Config.Seed
}

func (g *Generator) newPicker(policy domain.Policy) (picker, int64, error) {
	cfg := g.Config
	r := rand.New(rand.NewSource(g.seed(policy)))

	switch policy {
	case domain.Uniform:
		return &poolPicker{r: r, pool: NewPool(WordPrefix, WordWidth, cfg.UniqueVocabularySize)},
			int64(cfg.UniqueVocabularySize), nil

	case domain.Skewed:
		return &hotColdPicker{
			r:        r,
			hot:      NewPool(HotPrefix, HotWidth, cfg.HotWordCount),
			cold:     NewPool(ColdPrefix, ColdWidth, cfg.ColdWordCount),
			hotRatio: cfg.HotRatio,
		}, int64(cfg.HotWordCount + cfg.ColdWordCount), nil

	case domain.Unique:
		return &counterPicker{prefix: UUIDPrefix, width: UUIDWidth},
			cfg.TotalLines * int64(cfg.WordsPerLine), nil

	case domain.Weighted:
		counts, err := LoadWordCounts(cfg.WeightsFile)
		if err != nil {
			return nil, 0, err
		}
		wd, err := NewWordDistribution(counts)
		if err != nil {
			return nil, 0, err
		}
		return &distPicker{r: r, wd: wd}, int64(wd.Length), nil
	}

	return nil, 0, domain.NewConfigError("policy", "unknown policy "+string(policy))
}

func (g *Generator) write(stats *domain.GenerationStats, p picker) (err error) {
	cfg := g.Config
	dest := stats.Path
	timer := time.Now()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return domain.NewIOError(dest, err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	cw := &countingWriter{w: tmp}

	var w io.Writer = cw
	var zw *gzip.Writer
	if cfg.Gzip {
		zw = gzip.NewWriter(cw)
		w = zw
	}
	bw := bufio.NewWriterSize(w, writeBufferSize)

	line := make([]byte, 0, 16*cfg.WordsPerLine)

	for i := int64(0); i < cfg.TotalLines; i++ {
		line = line[:0]
		for j := 0; j < cfg.WordsPerLine; j++ {
			if j > 0 {
				line = append(line, ' ')
			}
			line = append(line, p.Pick()...)
		}
		line = append(line, '\n')

		if _, err := bw.Write(line); err != nil {
			return domain.NewIOError(dest, err)
		}

		stats.Lines++
		stats.Words += int64(cfg.WordsPerLine)

		if cfg.ProgressEvery > 0 && stats.Lines%cfg.ProgressEvery == 0 {
			g.progress(stats, time.Since(timer))
		}
	}

	if err := bw.Flush(); err != nil {
		return domain.NewIOError(dest, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return domain.NewIOError(dest, err)
		}
	}
	if err := tmp.Sync(); err != nil {
		return domain.NewIOError(dest, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return domain.NewIOError(dest, err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewIOError(dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return domain.NewIOError(dest, err)
	}

	stats.Bytes = cw.n
	stats.Elapsed = time.Since(timer)

	g.Logger.Info().
		Str("policy", string(stats.Policy)).
		Str("path", dest).
		Int64("bytes", stats.Bytes).
		Dur("elapsed", stats.Elapsed).
		Msg("corpus written")

	return nil
}

func (g *Generator) progress(stats *domain.GenerationStats, elapsed time.Duration) {
	total := g.Config.TotalLines
	speed := float64(stats.Lines) / elapsed.Seconds()

	var eta time.Duration
	if speed > 0 {
		eta = time.Duration(float64(total-stats.Lines) / speed * float64(time.Second))
	}

	g.Logger.Info().
		Str("policy", string(stats.Policy)).
		Int64("lines", stats.Lines).
		Int64("total", total).
		Float64("percent", 100*float64(stats.Lines)/float64(total)).
		Dur("elapsed", elapsed).
		Float64("lines_per_sec", speed).
		Dur("eta", eta).
		Msg("progress")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

package datagen

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anrid/combinerbench/pkg/config"
	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) config.Config {
	cfg := config.Defaults()
	cfg.TotalLines = 200
	cfg.WordsPerLine = 7
	cfg.UniqueVocabularySize = 100
	cfg.HotWordCount = 10
	cfg.ColdWordCount = 90
	cfg.ProgressEvery = 50
	cfg.OutputDir = dir
	return cfg
}

func newTestGenerator(cfg config.Config) *Generator {
	g := New(cfg)
	g.Logger = zerolog.Nop()
	return g
}

func readLines(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	}

	var lines [][]string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, strings.Fields(sc.Text()))
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestGenerateShape(t *testing.T) {
	for _, policy := range domain.Policies() {
		for _, seed := range []int64{1, 99, -5} {
			t.Run(string(policy), func(t *testing.T) {
				r := require.New(t)
				dir := t.TempDir()

				cfg := testConfig(dir)
				cfg.Seed = seed
				dest := filepath.Join(dir, policy.FileName(false))

				stats, err := newTestGenerator(cfg).Generate(policy, dest)
				r.NoError(err)
				r.Equal(cfg.TotalLines, stats.Lines)
				r.Equal(cfg.TotalLines*int64(cfg.WordsPerLine), stats.Words)

				fi, err := os.Stat(dest)
				r.NoError(err)
				r.Equal(fi.Size(), stats.Bytes)

				lines := readLines(t, dest)
				r.Len(lines, int(cfg.TotalLines))
				for _, l := range lines {
					r.Len(l, cfg.WordsPerLine)
				}

				data, err := os.ReadFile(dest)
				r.NoError(err)
				r.True(strings.HasSuffix(string(data), "\n"))
			})
		}
	}
}

func TestGenerateUniqueNeverRepeats(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	cfg := testConfig(dir)
	stats, err := newTestGenerator(cfg).Generate(domain.Unique, filepath.Join(dir, "u.txt"))
	r.NoError(err)
	r.Equal(cfg.TotalLines*int64(cfg.WordsPerLine), stats.UniqueTokens)
	r.Equal(1.0, stats.CompressionEstimate())

	seen := map[string]bool{}
	for _, l := range readLines(t, filepath.Join(dir, "u.txt")) {
		for _, w := range l {
			r.False(seen[w], "token %s repeated", w)
			seen[w] = true
		}
	}
	r.Len(seen, 1400)
	r.True(seen["uuid_00000000"])
	r.True(seen["uuid_00001399"])
}

func TestGenerateUniformIsFlat(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	cfg := testConfig(dir)
	cfg.TotalLines = 2_000
	cfg.WordsPerLine = 50
	cfg.UniqueVocabularySize = 1_000

	_, err := newTestGenerator(cfg).Generate(domain.Uniform, filepath.Join(dir, "uniform.txt"))
	r.NoError(err)

	counts := map[string]int{}
	for _, l := range readLines(t, filepath.Join(dir, "uniform.txt")) {
		for _, w := range l {
			r.True(strings.HasPrefix(w, "word_"))
			counts[w]++
		}
	}

	var max int
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	mean := 100_000 / float64(len(counts))
	r.LessOrEqual(len(counts), 1_000)
	r.Less(float64(max)/mean, 2.0)
}

func TestGenerateSkewedHotColdRatio(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	cfg := testConfig(dir)
	cfg.TotalLines = 2_000
	cfg.WordsPerLine = 50

	_, err := newTestGenerator(cfg).Generate(domain.Skewed, filepath.Join(dir, "skewed.txt"))
	r.NoError(err)

	var hot, cold float64
	for _, l := range readLines(t, filepath.Join(dir, "skewed.txt")) {
		for _, w := range l {
			switch {
			case strings.HasPrefix(w, "hot_word_"):
				hot++
			case strings.HasPrefix(w, "cold_word_"):
				cold++
			default:
				t.Fatalf("unexpected token %s", w)
			}
		}
	}

	r.InDelta(cfg.HotRatio, hot/(hot+cold), 0.01)

	perHot := hot / float64(cfg.HotWordCount)
	perCold := cold / float64(cfg.ColdWordCount)
	expected := cfg.ExpectedSkew()
	r.InEpsilon(expected, perHot/perCold, 0.1)
}

func TestGenerateSkewedAllHot(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	cfg := testConfig(dir)
	cfg.UniqueVocabularySize, cfg.HotWordCount, cfg.ColdWordCount, cfg.HotRatio = 2, 1, 1, 1.0

	_, err := newTestGenerator(cfg).Generate(domain.Skewed, filepath.Join(dir, "skewed.txt"))
	r.NoError(err)

	for _, l := range readLines(t, filepath.Join(dir, "skewed.txt")) {
		for _, w := range l {
			r.Equal("hot_word_000", w)
		}
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	cfg := testConfig(dir)
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")

	_, err := newTestGenerator(cfg).Generate(domain.Skewed, a)
	r.NoError(err)
	_, err = newTestGenerator(cfg).Generate(domain.Skewed, b)
	r.NoError(err)

	cfg.Seed = 2
	_, err = newTestGenerator(cfg).Generate(domain.Skewed, c)
	r.NoError(err)

	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	dc, _ := os.ReadFile(c)
	r.Equal(da, db)
	r.NotEqual(da, dc)
}

func TestGenerateFailures(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	cfg := testConfig(dir)
	cfg.ColdWordCount = 1

	_, err := newTestGenerator(cfg).Generate(domain.Skewed, filepath.Join(dir, "skewed.txt"))
	r.True(errors.Is(err, domain.ErrConfigInvalid))

	entries, err := os.ReadDir(dir)
	r.NoError(err)
	r.Empty(entries, "nothing may be written for an invalid config")

	_, err = newTestGenerator(testConfig(dir)).Generate(domain.Uniform, filepath.Join(dir, "missing", "uniform.txt"))
	r.True(errors.Is(err, domain.ErrIOFailure))

	entries, err = os.ReadDir(dir)
	r.NoError(err)
	r.Empty(entries)
}

func TestGenerateAll(t *testing.T) {
	r := require.New(t)
	dir := filepath.Join(t.TempDir(), "data")

	cfg := testConfig(dir)
	cfg.Gzip = true

	all, err := newTestGenerator(cfg).GenerateAll()
	r.NoError(err)
	r.Len(all, 3)

	for i, p := range domain.Policies() {
		r.Equal(p, all[i].Policy)
		r.Equal(filepath.Join(dir, p.FileName(true)), all[i].Path)
		r.Len(readLines(t, all[i].Path), int(cfg.TotalLines))
	}

	entries, err := os.ReadDir(dir)
	r.NoError(err)
	r.Len(entries, 3, "no temporary files may be left behind")
}

func TestGenerateWeighted(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	weights := filepath.Join(dir, "counts.txt")
	r.NoError(os.WriteFile(weights, []byte("alpha\t3\nbeta\t1\n"), 0o644))

	cfg := testConfig(dir)
	cfg.TotalLines = 1_000
	cfg.WordsPerLine = 40
	cfg.WeightsFile = weights

	stats, err := newTestGenerator(cfg).Generate(domain.Weighted, filepath.Join(dir, "weighted.txt"))
	r.NoError(err)
	r.Equal(int64(2), stats.UniqueTokens)

	counts := map[string]float64{}
	for _, l := range readLines(t, filepath.Join(dir, "weighted.txt")) {
		for _, w := range l {
			counts[w]++
		}
	}
	r.Len(counts, 2)
	r.InDelta(0.75, counts["alpha"]/40_000, 0.02)
}

func TestNewPool(t *testing.T) {
	r := require.New(t)

	r.Equal([]string{"word_00000", "word_00001"}, NewPool(WordPrefix, WordWidth, 2))
	r.Equal("cold_word_0123", NewPool(ColdPrefix, ColdWidth, 124)[123])
	r.Empty(NewPool(HotPrefix, HotWidth, 0))
}

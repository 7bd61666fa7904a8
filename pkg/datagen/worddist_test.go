package datagen

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/anrid/combinerbench/pkg/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWordDistributionGetWord(t *testing.T) {
	r := require.New(t)

	wd, err := NewWordDistribution(map[string]int64{
		"a": 50,
		"b": 20,
		"c": 10,
		"d": 5,
		"e": 2,
		"f": 1,
	})
	r.NoError(err)
	r.Equal(6, wd.Length)
	r.Equal(int64(88), wd.MaxOffset)

	r.Equal("a", wd.GetWord(-1))
	r.Equal("a", wd.GetWord(0))
	r.Equal("a", wd.GetWord(49))
	r.Equal("b", wd.GetWord(50))
	r.Equal("c", wd.GetWord(70))
	r.Equal("d", wd.GetWord(80))
	r.Equal("e", wd.GetWord(85))
	r.Equal("f", wd.GetWord(87))
	r.Equal("f", wd.GetWord(90))
}

func TestWordDistributionRandomWord(t *testing.T) {
	r := require.New(t)

	wd, err := NewWordDistribution(map[string]int64{"x": 3, "y": 1})
	r.NoError(err)

	rnd := rand.New(rand.NewSource(7))
	seen := map[string]int{}
	for i := 0; i < 40_000; i++ {
		seen[wd.RandomWord(rnd)]++
	}
	r.Len(seen, 2)
	r.InDelta(0.75, float64(seen["x"])/40_000, 0.02)

	single, err := NewWordDistribution(map[string]int64{"only": 9})
	r.NoError(err)
	r.Equal("only", single.RandomWord(rnd))
}

func TestWordDistributionRejectsBadCounts(t *testing.T) {
	r := require.New(t)

	_, err := NewWordDistribution(map[string]int64{})
	r.True(errors.Is(err, domain.ErrConfigInvalid))

	_, err = NewWordDistribution(map[string]int64{"a": 0})
	r.True(errors.Is(err, domain.ErrConfigInvalid))

	_, err = NewWordDistribution(map[string]int64{"": 4})
	r.True(errors.Is(err, domain.ErrConfigInvalid))

	// Offsets past MaxInt64 would make MaxOffset negative.
	_, err = NewWordDistribution(map[string]int64{"a": math.MaxInt64, "b": 1})
	r.True(errors.Is(err, domain.ErrConfigInvalid))

	wd, err := NewWordDistribution(map[string]int64{"a": math.MaxInt64 - 1, "b": 1})
	r.NoError(err)
	r.Equal(int64(math.MaxInt64), wd.MaxOffset)
}

func TestLoadWordCounts(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "part-r-00000")
	r.NoError(os.WriteFile(path, []byte("hot_word_001\t400\ncold_word_0042 3\n\nhot_word_001\t100\n"), 0o644))

	counts, err := LoadWordCounts(path)
	r.NoError(err)
	r.Equal(map[string]int64{"hot_word_001": 500, "cold_word_0042": 3}, counts)

	bad := filepath.Join(dir, "bad.txt")
	r.NoError(os.WriteFile(bad, []byte("word_00001 many\n"), 0o644))
	_, err = LoadWordCounts(bad)
	r.True(errors.Is(err, domain.ErrConfigInvalid))

	huge := filepath.Join(dir, "huge.txt")
	r.NoError(os.WriteFile(huge, []byte("a 9223372036854775807\na 1\n"), 0o644))
	_, err = LoadWordCounts(huge)
	r.True(errors.Is(err, domain.ErrConfigInvalid))

	_, err = LoadWordCounts(filepath.Join(dir, "nope.txt"))
	r.True(errors.Is(err, domain.ErrNotFound))
}

package datagen

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/anrid/combinerbench/pkg/domain"
)

// A WordDistribution is an array of words associated with numeric ranges
// that represent how often the word occurs in a given body of text.
// It is used to generate a corpus that replays the token frequencies of an
// existing word-count result, e.g. the output of the word-count job itself.
type WordDistribution struct {
	d         []*Offset
	Length    int
	MaxOffset int64
}

type Offset struct {
	Word   string
	Offset int64
}

type Count struct {
	Word  string
	Count int64
}

func NewWordDistribution(wordCounts map[string]int64) (*WordDistribution, error) {
	wd := new(WordDistribution)

	var words []*Count
	for word, count := range wordCounts {
		if word == "" || count <= 0 {
			return nil, domain.NewConfigError("weights", fmt.Sprintf("illegal word '%s' or count %d", word, count))
		}
		words = append(words, &Count{word, count})
	}

	if len(words) == 0 {
		return nil, domain.NewConfigError("weights", "empty word distribution")
	}

	// Sort by count descending, ties by word so that a given seed always
	// yields the same corpus.
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})

	var offset int64
	for _, w := range words {
		if w.Count > math.MaxInt64-offset {
			return nil, domain.NewConfigError("weights", fmt.Sprintf("total count overflows int64 at word '%s'", w.Word))
		}
		wd.d = append(wd.d, &Offset{w.Word, offset})
		offset += w.Count
	}

	wd.MaxOffset = offset
	wd.Length = len(wd.d)

	return wd, nil
}

func (wd *WordDistribution) RandomWord(r *rand.Rand) string {
	if len(wd.d) == 1 {
		return wd.d[0].Word
	}

	return wd.GetWord(r.Int63n(wd.MaxOffset))
}

// GetWord returns the word whose range [offset, next offset) contains offset.
// Offsets outside [0, MaxOffset) clamp to the first or last word.
func (wd *WordDistribution) GetWord(offset int64) string {
	// Binary search for the first interval starting past our offset, then
	// step back one to the interval containing it.
	i := sort.Search(len(wd.d), func(i int) bool {
		return wd.d[i].Offset > offset
	})
	if i > 0 {
		i--
	}

	return wd.d[i].Word
}

// LoadWordCounts reads a word-count result: one `token count` pair per line,
// separated by a tab or spaces. Repeated tokens are summed.
func LoadWordCounts(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.OpenError(path, err)
	}
	defer f.Close()

	counts := make(map[string]int64)

	sc := bufio.NewScanner(f)
	var n int
	for sc.Scan() {
		n++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, &domain.CorpusError{Kind: domain.ErrConfigInvalid, Path: path, Err: fmt.Errorf("line %d: expected `token count`, got %d fields", n, len(fields))}
		}
		c, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, &domain.CorpusError{Kind: domain.ErrConfigInvalid, Path: path, Err: fmt.Errorf("line %d: %w", n, err)}
		}
		if c > 0 && counts[fields[0]] > math.MaxInt64-c {
			return nil, &domain.CorpusError{Kind: domain.ErrConfigInvalid, Path: path, Err: fmt.Errorf("line %d: count of '%s' overflows int64", n, fields[0])}
		}
		counts[fields[0]] += c
	}
	if err := sc.Err(); err != nil {
		return nil, domain.NewIOError(path, err)
	}

	return counts, nil
}

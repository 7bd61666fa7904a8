package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/anrid/combinerbench/pkg/domain"
)

// FrequencyTable counts token occurrences over a single pass of a corpus.
// The sum of all counts always equals Total and the number of keys equals
// Unique.
type FrequencyTable struct {
	words map[string]int64
	total int64
}

func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{words: make(map[string]int64)}
}

func (f *FrequencyTable) Add(token string) {
	f.words[token]++
	f.total++
}

// AddLine tokenizes line on whitespace and returns the number of tokens added.
func (f *FrequencyTable) AddLine(line string) int {
	words := strings.Fields(line)
	for _, w := range words {
		f.Add(w)
	}
	return len(words)
}

func (f *FrequencyTable) Total() int64 { return f.total }

func (f *FrequencyTable) Unique() int64 { return int64(len(f.words)) }

func (f *FrequencyTable) Count(token string) int64 { return f.words[token] }

// Sorted returns all tokens by descending count, ties broken by token.
func (f *FrequencyTable) Sorted() []domain.TokenCount {
	sorted := make([]domain.TokenCount, 0, len(f.words))
	for w, c := range f.words {
		sorted = append(sorted, domain.TokenCount{Token: w, Count: c})
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Token < sorted[j].Token
	})

	return sorted
}

func (f *FrequencyTable) Top(n int) []domain.TokenCount {
	sorted := f.Sorted()
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// MaxMin returns the highest and lowest occurrence counts.
func (f *FrequencyTable) MaxMin() (max, min int64) {
	first := true
	for _, c := range f.words {
		if first || c > max {
			max = c
		}
		if first || c < min {
			min = c
		}
		first = false
	}
	return max, min
}

// TopShare returns the fraction of all occurrences held by the ceil(share *
// unique) most frequent tokens, at least one token.
func TopShare(sorted []domain.TokenCount, total int64, share float64) float64 {
	if total == 0 || len(sorted) == 0 {
		return 0
	}

	// The epsilon keeps products like 0.2*5 from rounding up to 2.
	k := int(math.Ceil(share*float64(len(sorted)) - 1e-9))
	if k < 1 {
		k = 1
	}
	if k > len(sorted) {
		k = len(sorted)
	}

	var sum int64
	for _, tc := range sorted[:k] {
		sum += tc.Count
	}

	return float64(sum) / float64(total)
}

package datagen

import (
	"fmt"
	"math/rand"
)

// Token pool prefixes and zero-padding widths.
const (
	WordPrefix = "word"
	WordWidth  = 5
	HotPrefix  = "hot_word"
	HotWidth   = 3
	ColdPrefix = "cold_word"
	ColdWidth  = 4
	UUIDPrefix = "uuid"
	UUIDWidth  = 8
)

// NewPool returns n distinct tokens `prefix_%0<width>d` for 0..n-1.
func NewPool(prefix string, width, n int) []string {
	pool := make([]string, n)
	for i := range pool {
		pool[i] = token(prefix, width, int64(i))
	}
	return pool
}

func token(prefix string, width int, i int64) string {
	return fmt.Sprintf("%s_%0*d", prefix, width, i)
}

// A picker selects the token for the next position in the corpus.
type picker interface {
	Pick() string
}

// poolPicker draws uniformly with replacement.
type poolPicker struct {
	r    *rand.Rand
	pool []string
}

func (p *poolPicker) Pick() string {
	return p.pool[p.r.Intn(len(p.pool))]
}

// hotColdPicker runs a Bernoulli(hotRatio) trial per position, then draws
// uniformly from the hot or the cold pool.
type hotColdPicker struct {
	r        *rand.Rand
	hot      []string
	cold     []string
	hotRatio float64
}

func (p *hotColdPicker) Pick() string {
	if p.r.Float64() < p.hotRatio {
		return p.hot[p.r.Intn(len(p.hot))]
	}
	return p.cold[p.r.Intn(len(p.cold))]
}

// counterPicker hands out a fresh token per call; no token ever repeats.
type counterPicker struct {
	prefix string
	width  int
	next   int64
}

func (p *counterPicker) Pick() string {
	t := token(p.prefix, p.width, p.next)
	p.next++
	return t
}

type distPicker struct {
	r  *rand.Rand
	wd *WordDistribution
}

func (p *distPicker) Pick() string {
	return p.wd.RandomWord(p.r)
}

package evolution

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Ranking is an immutable snapshot of a finished generation, ordered by
// BestDistance descending. Ties keep their original order.
type Ranking struct {
	ranked []*Individual
}

// Rank sorts a copy of individuals into a Ranking.
func Rank(individuals []*Individual) Ranking {
	ranked := make([]*Individual, len(individuals))
	copy(ranked, individuals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].BestDistance > ranked[j].BestDistance
	})
	return Ranking{ranked: ranked}
}

// Len returns the number of ranked individuals.
func (r Ranking) Len() int {
	return len(r.ranked)
}

// At returns the individual at rank i (0 is the fittest).
func (r Ranking) At(i int) *Individual {
	return r.ranked[i]
}

// Distances returns best distances in rank order.
func (r Ranking) Distances() []float64 {
	d := make([]float64, len(r.ranked))
	for i, ind := range r.ranked {
		d[i] = ind.BestDistance
	}
	return d
}

// Selector samples parents with an exponentially decaying preference for
// higher ranks. Low ranks are never fully excluded.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a selector drawing from rng.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// RankFor maps a uniform draw u in [0,1) to a rank in [0,n).
func RankFor(u float64, n int) int {
	if u == 0 {
		return 0
	}
	return int(-math.Log(u)*float64(n)) % n
}

// PickParent draws one parent from r. r must not be empty.
func (s *Selector) PickParent(r Ranking) *Individual {
	return r.At(RankFor(s.rng.Float64(), r.Len()))
}

// PickDistinctParents draws two different individuals (by identity).
// Rankings with fewer than two members are a caller error.
func (s *Selector) PickDistinctParents(r Ranking) (*Individual, *Individual, error) {
	if r.Len() < 2 {
		return nil, nil, fmt.Errorf("%w: have %d", ErrArchiveTooSmall, r.Len())
	}
	p1 := s.PickParent(r)
	p2 := p1
	for p2 == p1 {
		p2 = s.PickParent(r)
	}
	return p1, p2, nil
}

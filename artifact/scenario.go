package artifact

import "sort"

// Scenario is a mapping from revision name to its root artifact: arity
// 2 or 3 for ordinary merges, >=2 for n-way. Immutable once built —
// Revisions()/Root() never mutate the underlying map.
type Scenario struct {
	roots map[Revision]*Artifact
	order []Revision
}

// NewScenario builds a scenario from revision-ordered roots. order fixes
// the iteration order used by the n-way driver's left-fold; for ordinary
// 2/3-way scenarios callers pass Base/Left/Right (or just Left/Right for
// a diff-only run).
func NewScenario(order []Revision, roots map[Revision]*Artifact) *Scenario {
	roots2 := make(map[Revision]*Artifact, len(roots))
	for k, v := range roots {
		roots2[k] = v
	}
	order2 := make([]Revision, len(order))
	copy(order2, order)
	return &Scenario{roots: roots2, order: order2}
}

// NewThreeWay builds the canonical BASE/LEFT/RIGHT scenario.
func NewThreeWay(base, left, right *Artifact) *Scenario {
	return NewScenario([]Revision{Base, Left, Right}, map[Revision]*Artifact{
		Base: base, Left: left, Right: right,
	})
}

func (s *Scenario) Root(r Revision) (*Artifact, bool) {
	a, ok := s.roots[r]
	return a, ok
}

func (s *Scenario) Revisions() []Revision {
	out := make([]Revision, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Scenario) Arity() int {
	return len(s.order)
}

// SortedRevisions returns the scenario's revisions in lexical order; used
// where a deterministic-but-not-insertion order is wanted (diagnostics).
func (s *Scenario) SortedRevisions() []Revision {
	out := s.Revisions()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

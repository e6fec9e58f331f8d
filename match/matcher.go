package match

import "github.com/t03i/jdime/artifact"

// TreeMatcher is the default divide-and-conquer matcher: at each pair of
// nodes it checks structural equality, otherwise (subject to look-ahead)
// dispatches to the ordered DP or the unordered bipartite matcher
// depending on the node's Kind, as declared by the artifact.Table
// capability lookup. Scores are memoized per pair of artifact identities
// for the matcher's lifetime, which is one merge scenario.
type TreeMatcher struct {
	kinds     *artifact.Table
	lookahead *Table
	memo      map[pairKey]matchResult
}

// matchResult memoizes one scored pair: its total score, whether the two
// subtrees were structurally equal (children then correspond
// positionally), and otherwise the child pairs the assignment below it
// selected. Scoring records these without linking anything; linking
// happens in apply, only along the winning pairs — the DP scores every
// candidate grid pair, and linking a candidate that loses the assignment
// would overwrite the winner in the revision-keyed matches map.
type matchResult struct {
	score float64
	equal bool
	pairs []Pair
}

// NewTreeMatcher builds a matcher over the given kind-capability table
// and look-ahead configuration. Either may be nil (defaults: every kind
// ordered, look-ahead off).
func NewTreeMatcher(kinds *artifact.Table, lookahead *Table) *TreeMatcher {
	if kinds == nil {
		kinds = artifact.DefaultTable()
	}
	return &TreeMatcher{kinds: kinds, lookahead: lookahead, memo: make(map[pairKey]matchResult)}
}

// Match scores l against r and, when a correspondence is found anywhere
// in their subtrees, links the winning pairs via Artifact.SetMatch. It
// returns the score of the l/r pair itself (0 meaning "no
// correspondence").
func (m *TreeMatcher) Match(l, r *artifact.Artifact) float64 {
	s := m.score(l, r, 0)
	if s > 0 {
		m.apply(l, r)
	}
	return s
}

// MatchChildren matches l's and r's direct children against each other,
// dispatching on l's Kind, without requiring l and r themselves to be
// considered a match, and links the selected pairs.
func (m *TreeMatcher) MatchChildren(l, r *artifact.Artifact) ([]Pair, float64) {
	pairs, total := m.matchChildrenAt(l, r, 1)
	for _, p := range pairs {
		m.apply(p.Left, p.Right)
	}
	return pairs, total
}

func (m *TreeMatcher) score(l, r *artifact.Artifact, depth int) float64 {
	key := pairKey{l.Identity, r.Identity}
	if res, ok := m.memo[key]; ok {
		return res.score
	}
	m.memo[key] = matchResult{}

	if l.EqualsStructurally(r) {
		s := subtreeSize(l)
		m.memo[key] = matchResult{score: s, equal: true}
		return s
	}

	if l.IsLeaf() || r.IsLeaf() || !m.lookahead.Allows(l.Kind, depth+1) {
		return 0
	}

	pairs, total := m.matchChildrenAt(l, r, depth+1)
	if total <= 0 {
		return 0
	}
	m.memo[key] = matchResult{score: total, pairs: pairs}
	return total
}

func (m *TreeMatcher) matchChildrenAt(l, r *artifact.Artifact, depth int) ([]Pair, float64) {
	scorer := func(a, b *artifact.Artifact) float64 { return m.score(a, b, depth) }
	if m.kinds.Ordered(l.Kind) {
		return orderedChildren(l.Children(), r.Children(), scorer)
	}
	return unorderedChildren(l.Children(), r.Children(), scorer)
}

// apply links l to r and descends along the memoized winning pairs.
func (m *TreeMatcher) apply(l, r *artifact.Artifact) {
	res := m.memo[pairKey{l.Identity, r.Identity}]
	if res.equal {
		linkEqual(l, r)
		return
	}
	l.SetMatch(r)
	for _, p := range res.pairs {
		m.apply(p.Left, p.Right)
	}
}

// linkEqual links two structurally equal subtrees pairwise: equal trees
// have the same shape, so children correspond positionally all the way
// down. The merge driver needs the descendants linked too, or it would
// classify them as deleted-plus-added when recursing past this node.
func linkEqual(l, r *artifact.Artifact) {
	l.SetMatch(r)
	lc, rc := l.Children(), r.Children()
	for i := range lc {
		linkEqual(lc[i], rc[i])
	}
}

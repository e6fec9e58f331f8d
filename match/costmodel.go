package match

import (
	"context"
	"math/rand"

	"github.com/t03i/jdime/artifact"
	"golang.org/x/sync/errgroup"
)

// Weights scale the five additive terms of the assignment cost.
type Weights struct {
	Renaming  float64 // wr: matched pair differs in payload
	Ancestry  float64 // wn: parents of paired nodes are not themselves paired
	Sibling   float64 // ws: ordered-sibling relations broken
	Order     float64 // wo: child order violations within matched parents
	Unmatched float64 // wa: node left without a partner
}

// CostModelOptions configures the optional global cost-model matcher.
type CostModelOptions struct {
	Weights      Weights
	PAssign      float64
	Iterations   int
	Seed         int64
	FixRandom    bool
	FixLower     float64
	FixUpper     float64
	Parallel     bool
	Restarts     int
	ReMatchBound float64
}

// DefaultCostModelOptions returns cautious defaults that keep the search
// bounded on an ordinary developer machine.
func DefaultCostModelOptions() CostModelOptions {
	return CostModelOptions{
		Weights:      Weights{Renaming: 1, Ancestry: 1, Sibling: 1, Order: 1, Unmatched: 2},
		PAssign:      0.7,
		Iterations:   2000,
		Seed:         1,
		FixLower:     0.1,
		FixUpper:     0.3,
		Restarts:     4,
		ReMatchBound: 2.0,
	}
}

// CostModelMatcher runs a global assignment search over two whole trees,
// as an alternative to the divide-and-conquer TreeMatcher: an iterated
// probabilistic local improvement over candidate pairings, scored by the
// five weighted cost terms.
type CostModelMatcher struct {
	opts CostModelOptions
}

func NewCostModelMatcher(opts CostModelOptions) *CostModelMatcher {
	return &CostModelMatcher{opts: opts}
}

type treeIndex struct {
	nodes       []*artifact.Artifact
	parentOf    []int // index into nodes, -1 for root
	siblingRank []int // position among parent's children
}

func indexTree(root *artifact.Artifact) *treeIndex {
	idx := &treeIndex{}
	var walk func(n *artifact.Artifact, parent, rank int)
	walk = func(n *artifact.Artifact, parent, rank int) {
		self := len(idx.nodes)
		idx.nodes = append(idx.nodes, n)
		idx.parentOf = append(idx.parentOf, parent)
		idx.siblingRank = append(idx.siblingRank, rank)
		for i, c := range n.Children() {
			walk(c, self, i)
		}
	}
	walk(root, -1, 0)
	return idx
}

type assignmentState struct {
	leftToRight []int // -1 = unmatched
	rightToLeft []int
}

func newAssignmentState(n, m int) *assignmentState {
	s := &assignmentState{leftToRight: make([]int, n), rightToLeft: make([]int, m)}
	for i := range s.leftToRight {
		s.leftToRight[i] = -1
	}
	for j := range s.rightToLeft {
		s.rightToLeft[j] = -1
	}
	return s
}

func (s *assignmentState) clone() *assignmentState {
	c := &assignmentState{
		leftToRight: append([]int(nil), s.leftToRight...),
		rightToLeft: append([]int(nil), s.rightToLeft...),
	}
	return c
}

func (s *assignmentState) set(i, j int) {
	if old := s.leftToRight[i]; old >= 0 {
		s.rightToLeft[old] = -1
	}
	if j >= 0 {
		if old := s.rightToLeft[j]; old >= 0 {
			s.leftToRight[old] = -1
		}
		s.rightToLeft[j] = i
	}
	s.leftToRight[i] = j
}

// cost evaluates the full assignment under the five-term model.
func cost(left, right *treeIndex, s *assignmentState, w Weights) float64 {
	total := 0.0
	for i, j := range s.leftToRight {
		if j < 0 {
			total += w.Unmatched
			continue
		}
		ln, rn := left.nodes[i], right.nodes[j]
		if ln.Payload != rn.Payload {
			total += w.Renaming
		}
		lp, rp := left.parentOf[i], right.parentOf[j]
		if lp < 0 && rp < 0 {
			continue
		}
		if lp < 0 || rp < 0 || s.leftToRight[lp] != rp {
			total += w.Ancestry
			continue
		}
		// Same matched parent: check sibling-order agreement against
		// every other matched sibling pair.
		for k, j2 := range s.leftToRight {
			if k == i || j2 < 0 || left.parentOf[k] != lp {
				continue
			}
			lOrder := left.siblingRank[i] < left.siblingRank[k]
			rOrder := right.siblingRank[j] < right.siblingRank[j2]
			if lOrder != rOrder {
				total += w.Order
			}
			adjacent := abs(left.siblingRank[i]-left.siblingRank[k]) == 1
			if adjacent && lOrder != rOrder {
				total += w.Sibling
			}
		}
	}
	for j := range s.rightToLeft {
		if s.rightToLeft[j] < 0 {
			total += w.Unmatched
		}
	}
	return total
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sameKindCandidates(left, right *treeIndex) [][]int {
	candidates := make([][]int, len(left.nodes))
	for i, ln := range left.nodes {
		for j, rn := range right.nodes {
			if ln.Kind == rn.Kind {
				candidates[i] = append(candidates[i], j)
			}
		}
	}
	return candidates
}

func greedyInitial(left, right *treeIndex, candidates [][]int) *assignmentState {
	s := newAssignmentState(len(left.nodes), len(right.nodes))
	for i := range left.nodes {
		for _, j := range candidates[i] {
			if s.rightToLeft[j] < 0 && left.nodes[i].EqualsStructurally(right.nodes[j]) {
				s.set(i, j)
				break
			}
		}
	}
	return s
}

// anneal runs one restart of the iterated local-improvement search and
// returns the best assignment and cost it found. ctx is checked
// periodically so a cancelled run stops between iterations.
func anneal(ctx context.Context, left, right *treeIndex, candidates [][]int, opts CostModelOptions, seed int64) (*assignmentState, float64, error) {
	rng := rand.New(rand.NewSource(seed))
	state := greedyInitial(left, right, candidates)
	best := state.clone()
	bestCost := cost(left, right, state, opts.Weights)
	curCost := bestCost

	pinned := make([]bool, len(left.nodes))
	if opts.FixRandom {
		frac := opts.FixLower + rng.Float64()*(opts.FixUpper-opts.FixLower)
		for i := range pinned {
			pinned[i] = rng.Float64() < frac
		}
	}

	n := len(left.nodes)
	if n == 0 {
		return state, curCost, nil
	}
	for iter := 0; iter < opts.Iterations; iter++ {
		if iter&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
		i := rng.Intn(n)
		if pinned[i] {
			continue
		}
		cands := candidates[i]
		var target int = -1
		if len(cands) > 0 && rng.Float64() < opts.PAssign {
			target = rouletteChoice(left, right, state, opts.Weights, i, cands, rng)
		} else {
			free := freeCandidates(right, state, cands)
			if len(free) > 0 {
				target = free[rng.Intn(len(free))]
			}
		}
		if target == state.leftToRight[i] {
			continue
		}
		trial := state.clone()
		trial.set(i, target)
		trialCost := cost(left, right, trial, opts.Weights)
		if trialCost <= curCost {
			state = trial
			curCost = trialCost
			if curCost < bestCost {
				bestCost = curCost
				best = state.clone()
			}
		}
	}
	return best, bestCost, nil
}

func freeCandidates(right *treeIndex, s *assignmentState, cands []int) []int {
	var free []int
	for _, j := range cands {
		if s.rightToLeft[j] < 0 {
			free = append(free, j)
		}
	}
	return free
}

// rouletteChoice picks a candidate weighted by the inverse of the cost
// delta reassigning i to it would cause, so cheap reassignments are
// proportionally more likely.
func rouletteChoice(left, right *treeIndex, s *assignmentState, w Weights, i int, cands []int, rng *rand.Rand) int {
	base := cost(left, right, s, w)
	weights := make([]float64, len(cands))
	total := 0.0
	for idx, j := range cands {
		trial := s.clone()
		trial.set(i, j)
		delta := cost(left, right, trial, w) - base
		if delta < 0 {
			delta = 0
		}
		weight := 1.0 / (1.0 + delta)
		weights[idx] = weight
		total += weight
	}
	if total == 0 {
		return cands[rng.Intn(len(cands))]
	}
	r := rng.Float64() * total
	for idx, weight := range weights {
		r -= weight
		if r <= 0 {
			return cands[idx]
		}
	}
	return cands[len(cands)-1]
}

// Match runs the cost-model search over the whole trees rooted at l and
// r, links every discovered pair via SetMatch, and returns the winning
// pairs and final cost. When opts.Parallel is set, independent restarts
// run concurrently via an errgroup and the lowest-cost (ties broken by
// lowest seed) result wins, so a fixed seed gives reproducible results
// regardless of scheduling.
func (m *CostModelMatcher) Match(ctx context.Context, l, r *artifact.Artifact) ([]Pair, float64, error) {
	left := indexTree(l)
	right := indexTree(r)
	candidates := sameKindCandidates(left, right)

	restarts := m.opts.Restarts
	if restarts < 1 {
		restarts = 1
	}

	type result struct {
		seed  int64
		state *assignmentState
		cost  float64
	}
	results := make([]result, restarts)

	run := func(runCtx context.Context, idx int) error {
		seed := m.opts.Seed + int64(idx)
		state, c, err := anneal(runCtx, left, right, candidates, m.opts, seed)
		if err != nil {
			return err
		}
		results[idx] = result{seed: seed, state: state, cost: c}
		return nil
	}

	if m.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for idx := 0; idx < restarts; idx++ {
			idx := idx
			g.Go(func() error { return run(gctx, idx) })
		}
		if err := g.Wait(); err != nil {
			return nil, 0, err
		}
	} else {
		for idx := 0; idx < restarts; idx++ {
			if err := run(ctx, idx); err != nil {
				return nil, 0, err
			}
		}
	}

	best := results[0]
	for _, res := range results[1:] {
		if res.cost < best.cost || (res.cost == best.cost && res.seed < best.seed) {
			best = res
		}
	}

	var pairs []Pair
	for i, j := range best.state.leftToRight {
		if j < 0 {
			continue
		}
		ln, rn := left.nodes[i], right.nodes[j]
		ln.SetMatch(rn)
		pairs = append(pairs, Pair{Left: ln, Right: rn, Score: -1})
	}
	return pairs, best.cost, nil
}

package match

import (
	"math"

	"github.com/t03i/jdime/artifact"
)

// unorderedChildren runs maximum-weight bipartite matching over two
// children slices, dropping orderedChildren's order-preservation
// condition, via the classical O(n^3) Hungarian algorithm (Kuhn-Munkres,
// as commonly written e.g. in cp-algorithms).
func unorderedChildren(lc, rc []*artifact.Artifact, scorer func(l, r *artifact.Artifact) float64) ([]Pair, float64) {
	n, k := len(lc), len(rc)
	if n == 0 || k == 0 {
		return nil, 0
	}

	dim := n
	if k > dim {
		dim = k
	}
	// Square cost matrix: real pairs cost -score (we minimize), padding
	// rows/columns (standing for "left unmatched") cost 0 so the
	// algorithm never forces a real-real pairing that loses value.
	pairScore := make([][]float64, n)
	cost := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		cost[i] = make([]float64, dim)
	}
	for i := 0; i < n; i++ {
		pairScore[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			s := scorer(lc[i], rc[j])
			pairScore[i][j] = s
			if s > 0 {
				cost[i][j] = -s
			}
		}
	}

	assignment := hungarian(cost)

	var pairs []Pair
	total := 0.0
	for i := 0; i < n; i++ {
		j := assignment[i]
		if j >= 0 && j < k && pairScore[i][j] > 0 {
			pairs = append(pairs, Pair{Left: lc[i], Right: rc[j], Score: pairScore[i][j]})
			total += pairScore[i][j]
		}
	}
	return pairs, total
}

// hungarian solves the square assignment problem (minimize total cost)
// and returns, for each row, the assigned column. 1-indexed internally to
// match the classical formulation's potential/way bookkeeping.
func hungarian(cost [][]float64) []int {
	n := len(cost)
	const inf = math.MaxFloat64 / 2

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j] = row currently assigned to column j (1-indexed), 0 = none
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = -1
	}
	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			assignment[p[j]-1] = j - 1
		}
	}
	return assignment
}

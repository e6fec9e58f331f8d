package match

import "github.com/t03i/jdime/artifact"

// orderedChildren runs an order-preserving dynamic program over two
// children slices: "match" (diagonal plus subtree score)
// versus "skip" (carry the max of up/left), memoized implicitly by
// filling the grid bottom-up. scorer must return 0 (or less) to mean "do
// not match this pair."
func orderedChildren(lc, rc []*artifact.Artifact, scorer func(l, r *artifact.Artifact) float64) ([]Pair, float64) {
	n, k := len(lc), len(rc)
	if n == 0 || k == 0 {
		return nil, 0
	}

	pairScore := make([][]float64, n)
	for i := range pairScore {
		pairScore[i] = make([]float64, k)
		for j := range pairScore[i] {
			pairScore[i][j] = scorer(lc[i], rc[j])
		}
	}

	// dp[i][j] = best total score matching lc[i:] against rc[j:].
	dp := make([][]float64, n+1)
	for i := range dp {
		dp[i] = make([]float64, k+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := k - 1; j >= 0; j-- {
			best := dp[i+1][j]
			if v := dp[i][j+1]; v > best {
				best = v
			}
			if s := pairScore[i][j]; s > 0 {
				if v := s + dp[i+1][j+1]; v > best {
					best = v
				}
			}
			dp[i][j] = best
		}
	}

	var pairs []Pair
	i, j := 0, 0
	for i < n && j < k {
		switch {
		case pairScore[i][j] > 0 && dp[i][j] == pairScore[i][j]+dp[i+1][j+1]:
			pairs = append(pairs, Pair{Left: lc[i], Right: rc[j], Score: pairScore[i][j]})
			i++
			j++
		case dp[i][j] == dp[i+1][j]:
			i++
		default:
			j++
		}
	}
	return pairs, dp[0][0]
}

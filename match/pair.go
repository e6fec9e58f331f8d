package match

import "github.com/t03i/jdime/artifact"

// Pair is one correspondence a matcher found between two artifacts,
// carrying the recursive subtree score that justified it.
type Pair struct {
	Left, Right *artifact.Artifact
	Score       float64
}

type pairKey struct {
	left, right artifact.ID
}

func subtreeSize(a *artifact.Artifact) float64 {
	n := 1.0
	for _, c := range a.Children() {
		n += subtreeSize(c)
	}
	return n
}

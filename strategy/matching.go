package strategy

import (
	"context"

	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/match"
	"github.com/t03i/jdime/mergectx"
)

// matchPair links l and r via whichever matcher the context selects:
// the cost-model matcher when UseCostModel is set, otherwise the default
// divide-and-conquer TreeMatcher. Both link their discovered pairs via
// Artifact.SetMatch as a side effect, so callers only need the error
// return.
func matchPair(ctx context.Context, mergeCtx *mergectx.MergeContext, kinds *artifact.Table, l, r *artifact.Artifact) error {
	if mergeCtx.UseCostModel {
		cm := match.NewCostModelMatcher(mergeCtx.CostModel)
		_, _, err := cm.Match(ctx, l, r)
		return err
	}
	m := match.NewTreeMatcher(kinds, mergeCtx.Lookahead)
	m.Match(l, r)
	return nil
}

package merge

import (
	"github.com/pkg/errors"
	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/match"
	"github.com/t03i/jdime/mergectx"
)

// NWayDriver unifies two or more revisions by an iterated left-fold of
// pairwise conditional merges, each one inserting choice artifacts
// labeled by revision name.
type NWayDriver struct {
	ctx   *mergectx.MergeContext
	kinds *artifact.Table
}

// NewNWayDriver builds an n-way driver. kinds may be nil (every kind
// ordered, no kind method-scoped).
func NewNWayDriver(ctx *mergectx.MergeContext, kinds *artifact.Table) *NWayDriver {
	if ctx == nil {
		ctx = mergectx.New()
	}
	if kinds == nil {
		kinds = artifact.DefaultTable()
	}
	return &NWayDriver{ctx: ctx, kinds: kinds}
}

// Merge runs the left-fold over scenario.Revisions() in order: the
// first revision seeds the accumulator; each subsequent
// revision is matched directly against the accumulator — full look-ahead
// forced, since there is no BASE to anchor "changed" classification —
// and merged in via mergeNoBase, which is always run in conditional mode.
func (n *NWayDriver) Merge(scenario *artifact.Scenario) (*artifact.Artifact, error) {
	revisions := scenario.Revisions()
	if len(revisions) < 2 {
		return nil, errors.New("merge: n-way scenario needs at least two revisions")
	}

	seedRoot, ok := scenario.Root(revisions[0])
	if !ok || seedRoot == nil {
		return nil, errors.Errorf("merge: scenario missing root for revision %s", revisions[0])
	}
	acc := seedRoot.CloneDeep(artifact.Merge)
	accLabel := string(revisions[0])

	// Variant output is the whole point of this strategy: choice nodes
	// carry revision labels everywhere, not only inside method-scoped
	// kinds, so the method gating of the 3-way conditional mode does not
	// apply here.
	conditionalCtx := n.ctx.Clone()
	conditionalCtx.ConditionalMerge = true
	conditionalCtx.ConditionalOutsideMethods = true
	driver := NewDriver(conditionalCtx, n.kinds)
	fullLookahead := match.NewTable(match.Full, nil)

	for _, rev := range revisions[1:] {
		next, ok := scenario.Root(rev)
		if !ok || next == nil {
			return nil, errors.Errorf("merge: scenario missing root for revision %s", rev)
		}

		matcher := match.NewTreeMatcher(n.kinds, fullLookahead)
		matcher.Match(acc, next)

		merged, err := driver.mergeNoBase(acc, next, accLabel, string(rev))
		if err != nil {
			return nil, errors.Wrapf(err, "n-way fold at revision %s", rev)
		}
		acc = merged
		accLabel = accLabel + "+" + string(rev)
	}
	return acc, nil
}

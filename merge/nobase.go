package merge

import "github.com/t03i/jdime/artifact"

// mergeNoBase is the pairwise step of the n-way/variant driver: there
// is no common ancestor, so "changed" classification does not apply —
// left and right are compared directly, and choice
// artifacts (conditionalMerge is always on for this path) mark the
// points where they genuinely differ. leftLabel/rightLabel name the
// revisions the caller wants attached to any choice created at this
// step; they are threaded explicitly rather than read off
// Artifact.Revision because, after the first fold, the accumulator's own
// Revision is MERGE and no longer names any single input revision.
func (d *Driver) mergeNoBase(left, right *artifact.Artifact, leftLabel, rightLabel string) (*artifact.Artifact, error) {
	if left.Choice {
		// The accumulator already diverged here on an earlier fold step;
		// fold right in as one more variant instead of nesting choices.
		return d.extendChoice(left, right, rightLabel), nil
	}
	if left.EqualsStructurally(right) {
		clone := left.CloneDeep(artifact.Merge)
		clone.Merged = true
		return clone, nil
	}
	if left.IsLeaf() || right.IsLeaf() {
		return d.conflictOrChoiceLabeled(left.Kind, artifact.ConflictContent, leftLabel, rightLabel,
			left.CloneDeep(artifact.Merge), right.CloneDeep(artifact.Merge)), nil
	}

	children, err := d.mergeChildrenNoBase(left, right, leftLabel, rightLabel)
	if err != nil {
		return nil, err
	}
	merged := artifact.New(artifact.Merge, newID(), left.Kind)
	merged.Merged = true
	if left.Attributes != nil {
		merged.Attributes = make(map[string]string, len(left.Attributes))
		for k, v := range left.Attributes {
			merged.Attributes[k] = v
		}
	}
	for _, c := range children {
		merged.AddChild(c)
	}
	return merged, nil
}

// extendChoice folds one more revision into an existing choice artifact:
// a variant already covering right absorbs its label, otherwise right
// becomes a new labeled variant, so the fold accumulates one choice per
// divergent region with the revision names as condition labels.
func (d *Driver) extendChoice(choice, right *artifact.Artifact, rightLabel string) *artifact.Artifact {
	variants := choice.Variants()
	out := make([]artifact.Variant, 0, len(variants)+1)
	covered := false
	for _, v := range variants {
		label := v.Label
		if !covered && v.Content.EqualsStructurally(right) {
			covered = true
			label = label + "+" + rightLabel
		}
		out = append(out, artifact.Variant{Label: label, Content: v.Content.CloneDeep(artifact.Merge)})
	}
	if !covered {
		out = append(out, artifact.Variant{Label: rightLabel, Content: right.CloneDeep(artifact.Merge)})
	}
	return artifact.NewChoice(newID(), choice.Kind, out...)
}

// mergeChildrenNoBase merges two child sequences with no base
// correspondence. Pairs matched by the matcher run ahead of time
// recurse; children unmatched on either side are grouped by the matched
// sibling they immediately follow (the same anchoring spliceAdditions
// uses), paired index-wise within a group — so the two sides' variants
// of one divergent region meet in a single choice instead of being
// duplicated — and leftovers are carried through as-is, left's before
// right's.
func (d *Driver) mergeChildrenNoBase(left, right *artifact.Artifact, leftLabel, rightLabel string) ([]*artifact.Artifact, error) {
	rightRev := right.Revision

	var outputs []emitted
	consumedRight := make(map[artifact.ID]bool)
	leftPartner := make(map[artifact.ID]artifact.ID)

	for _, lc := range left.Children() {
		rc, ok := lc.Match(rightRev)
		if !ok || rc.Parent() != right {
			continue
		}
		consumedRight[rc.Identity] = true
		leftPartner[rc.Identity] = lc.Identity
		merged, err := d.mergeNoBase(lc, rc, leftLabel, rightLabel)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, emitted{anchorID: lc.Identity, hasAnchor: true, art: merged})
	}

	var leftAdds []addition
	{
		var anchor artifact.ID
		hasAnchor := false
		for _, lc := range left.Children() {
			if rc, ok := lc.Match(rightRev); ok && rc.Parent() == right {
				anchor, hasAnchor = lc.Identity, true
				continue
			}
			leftAdds = append(leftAdds, addition{art: lc, anchor: anchor, hasAnchor: hasAnchor})
		}
	}
	var rightAdds []addition
	{
		var anchor artifact.ID
		hasAnchor := false
		for _, rc := range right.Children() {
			if consumedRight[rc.Identity] {
				anchor, hasAnchor = leftPartner[rc.Identity], true
				continue
			}
			rightAdds = append(rightAdds, addition{art: rc, anchor: anchor, hasAnchor: hasAnchor})
		}
	}

	order, lgs, rgs := groupAdditions(leftAdds, rightAdds)
	for _, k := range order {
		lg := lgs[k]
		rg := rgs[k]
		n := min(len(lg), len(rg))
		var nodes []emitted
		for i := 0; i < n; i++ {
			merged, err := d.mergeNoBase(lg[i].art, rg[i].art, leftLabel, rightLabel)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, emitted{art: merged})
		}
		for _, a := range lg[n:] {
			nodes = append(nodes, emitted{art: a.art.CloneDeep(artifact.Merge)})
		}
		for _, a := range rg[n:] {
			nodes = append(nodes, emitted{art: a.art.CloneDeep(artifact.Merge)})
		}

		insertAt := 0
		if k.ok {
			if idx := indexOfAnchor(outputs, k.id); idx >= 0 {
				insertAt = idx + 1
			}
		}
		outputs = insertEmitted(outputs, insertAt, nodes...)
	}

	result := make([]*artifact.Artifact, len(outputs))
	for i, o := range outputs {
		result[i] = o.art
	}
	return result, nil
}

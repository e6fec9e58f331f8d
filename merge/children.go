package merge

import "github.com/t03i/jdime/artifact"

// emitted is one synthesized child in progress: anchorID/hasAnchor let
// later passes anchor insertions to it; art is nil only as a transient
// state, never stored in outputs.
type emitted struct {
	anchorID  artifact.ID
	hasAnchor bool
	art       *artifact.Artifact
}

// mergeChildren synthesizes the child sequence of a both-sides-changed
// node: matched children merge pairwise, unmatched LEFT-only or
// RIGHT-only children are spliced into the merged sequence preserving
// relative order.
//
// The backbone of the output order is LEFT's child sequence; BASE
// children absent from LEFT (deleted-on-left) and unmatched additions
// from both sides are spliced in relative to their nearest surviving
// BASE-matched neighbor.
func (d *Driver) mergeChildren(base, left, right *artifact.Artifact) ([]*artifact.Artifact, error) {
	outputs, consumed, err := d.mergeMatchedBackbone(base, left, right)
	if err != nil {
		return nil, err
	}
	outputs = d.spliceDeletedOnLeft(base, consumed, outputs)
	outputs = d.spliceAdditions(base, left, right, outputs)

	result := make([]*artifact.Artifact, len(outputs))
	for i, o := range outputs {
		result[i] = o.art
	}
	return result, nil
}

// mergeMatchedBackbone walks left's children in order, merging every one
// that corresponds to a BASE child. Children of left with no BASE match
// are additions, handled later by spliceAdditions.
func (d *Driver) mergeMatchedBackbone(base, left, right *artifact.Artifact) ([]emitted, map[artifact.ID]bool, error) {
	var outputs []emitted
	consumed := make(map[artifact.ID]bool)

	for _, lc := range left.Children() {
		b, ok := lc.Match(artifact.Base)
		if !ok || b.Parent() != base {
			continue // addition, not a BASE-matched child of this parent
		}
		consumed[b.Identity] = true
		var r *artifact.Artifact
		if rr, ok2 := b.Match(artifact.Right); ok2 && rr.Parent() == right {
			r = rr
		}
		merged, err := d.mergeNode(b, lc, r)
		if err != nil {
			return nil, nil, err
		}
		if merged != nil {
			outputs = append(outputs, emitted{anchorID: b.Identity, hasAnchor: true, art: merged})
		}
	}
	return outputs, consumed, nil
}

// spliceDeletedOnLeft handles BASE children with no LEFT match: removed
// if unchanged on RIGHT, otherwise a delete/modify conflict spliced in
// right after the nearest preceding BASE sibling that survived in LEFT.
func (d *Driver) spliceDeletedOnLeft(base *artifact.Artifact, consumed map[artifact.ID]bool, outputs []emitted) []emitted {
	lastIdx := -1
	for _, b := range base.Children() {
		if consumed[b.Identity] {
			if idx := indexOfAnchor(outputs, b.Identity); idx >= 0 {
				lastIdx = idx
			}
			continue
		}
		r, hasR := b.Match(artifact.Right)
		if !hasR {
			continue // deleted on both sides
		}
		if b.EqualsStructurally(r) {
			continue // rule 3: unchanged on right, deleted on left -> removed
		}
		deleted := deletedPlaceholder(b.Kind, artifact.Left)
		changed := r.CloneDeep(artifact.Merge)
		conflict := d.conflictOrChoiceLabeled(b.Kind, artifact.ConflictDeleteModify, string(artifact.Left), string(artifact.Right), deleted, changed)
		insertAt := lastIdx + 1
		outputs = insertEmitted(outputs, insertAt, emitted{art: conflict})
		lastIdx = insertAt
	}
	return outputs
}

// addition is one LEFT-only or RIGHT-only child with no BASE match,
// anchored to the identity of the nearest preceding sibling (in its own
// revision's sequence) that does have one; hasAnchor false means "no
// preceding matched sibling, insert at the front."
type addition struct {
	art       *artifact.Artifact
	anchor    artifact.ID
	hasAnchor bool
}

func collectAdditions(parent *artifact.Artifact) []addition {
	var adds []addition
	var anchor artifact.ID
	hasAnchor := false
	for _, c := range parent.Children() {
		if b, ok := c.Match(artifact.Base); ok {
			anchor, hasAnchor = b.Identity, true
			continue
		}
		adds = append(adds, addition{art: c, anchor: anchor, hasAnchor: hasAnchor})
	}
	return adds
}

// anchorKey identifies one insertion point: the anchor identity, or
// "front of the sequence" when ok is false.
type anchorKey struct {
	id artifact.ID
	ok bool
}

// groupAdditions buckets left and right additions by their anchor,
// remembering first-appearance order with left's groups first: LEFT
// additions precede RIGHT additions at the same anchor position.
func groupAdditions(leftAdds, rightAdds []addition) ([]anchorKey, map[anchorKey][]addition, map[anchorKey][]addition) {
	var order []anchorKey
	seen := make(map[anchorKey]bool)
	lg := make(map[anchorKey][]addition)
	rg := make(map[anchorKey][]addition)
	for _, a := range leftAdds {
		k := anchorKey{a.anchor, a.hasAnchor}
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
		lg[k] = append(lg[k], a)
	}
	for _, a := range rightAdds {
		k := anchorKey{a.anchor, a.hasAnchor}
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
		rg[k] = append(rg[k], a)
	}
	return order, lg, rg
}

// spliceAdditions inserts children with no BASE correspondent: additions
// are grouped by anchor (the BASE-matched sibling they immediately
// follow in their own revision), paired index-wise within a group
// (equal -> single copy, unequal -> conflict), and any leftover
// one-sided additions are appended — LEFT's leftovers before RIGHT's.
func (d *Driver) spliceAdditions(base, left, right *artifact.Artifact, outputs []emitted) []emitted {
	order, lgs, rgs := groupAdditions(collectAdditions(left), collectAdditions(right))

	for _, k := range order {
		lg := lgs[k]
		rg := rgs[k]
		n := min(len(lg), len(rg))
		var nodes []emitted
		for i := 0; i < n; i++ {
			if lg[i].art.EqualsStructurally(rg[i].art) {
				clone := lg[i].art.CloneDeep(artifact.Merge)
				clone.Added = true
				nodes = append(nodes, emitted{art: clone})
			} else {
				conflict := d.conflictOrChoice(lg[i].art.Kind, artifact.ConflictAddAdd,
					lg[i].art.CloneDeep(artifact.Merge), rg[i].art.CloneDeep(artifact.Merge))
				nodes = append(nodes, emitted{art: conflict})
			}
		}
		for _, a := range lg[n:] {
			clone := a.art.CloneDeep(artifact.Merge)
			clone.Added = true
			nodes = append(nodes, emitted{art: clone})
		}
		for _, a := range rg[n:] {
			clone := a.art.CloneDeep(artifact.Merge)
			clone.Added = true
			nodes = append(nodes, emitted{art: clone})
		}

		insertAt := 0
		if k.ok {
			if idx := indexOfAnchor(outputs, k.id); idx >= 0 {
				insertAt = idx + 1
			}
		}
		outputs = insertEmitted(outputs, insertAt, nodes...)
	}
	return outputs
}

func indexOfAnchor(outputs []emitted, id artifact.ID) int {
	for i, o := range outputs {
		if o.hasAnchor && o.anchorID == id {
			return i
		}
	}
	return -1
}

func insertEmitted(s []emitted, at int, items ...emitted) []emitted {
	if at < 0 {
		at = 0
	}
	if at > len(s) {
		at = len(s)
	}
	out := make([]emitted, 0, len(s)+len(items))
	out = append(out, s[:at]...)
	out = append(out, items...)
	out = append(out, s[at:]...)
	return out
}

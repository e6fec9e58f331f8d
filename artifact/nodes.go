package artifact

// NewConflict builds a conflict artifact: exactly two content children
// (left variant, right variant) and no ordinary payload. It is what the
// merge driver emits for an irreconcilable region when conditional merge
// is off.
func NewConflict(identity ID, kind ConflictKind, left, right *Artifact) *Artifact {
	a := New(Merge, identity, left.Kind)
	a.Conflict = true
	a.ConflictKind = kind
	a.AddChild(left)
	a.AddChild(right)
	return a
}

// Variant is one labeled alternative inside a choice artifact.
type Variant struct {
	Label   string
	Content *Artifact
}

// NewChoice builds a choice artifact: one content child per named
// variant. Used by the merge driver in conditional mode instead of a
// conflict artifact, and by the n-way driver to accumulate per-revision
// alternatives.
func NewChoice(identity ID, kind Kind, variants ...Variant) *Artifact {
	a := New(Merge, identity, kind)
	a.Choice = true
	for _, v := range variants {
		child := v.Content
		if child.Attributes == nil {
			child.Attributes = make(map[string]string, 1)
		}
		child.Attributes["variant"] = v.Label
		a.AddChild(child)
	}
	return a
}

// Variants returns the labeled content children of a choice artifact, in
// the order they were added. It returns nil if a is not a choice
// artifact.
func (a *Artifact) Variants() []Variant {
	if !a.Choice {
		return nil
	}
	out := make([]Variant, 0, len(a.children))
	for _, c := range a.children {
		out = append(out, Variant{Label: c.Attributes["variant"], Content: c})
	}
	return out
}

// Package merge implements the three-way merge driver and the
// n-way/variant driver: given matchings BASE<->LEFT and BASE<->RIGHT
// already recorded on the artifact trees (via Artifact.SetMatch, as
// produced by the match package's matchers), it classifies every node
// and synthesizes the merged tree, emitting conflict or choice artifacts
// where the two sides cannot be reconciled.
//
// Comments throughout the package refer to the synthesis rules by
// number:
//
//	1. both sides unchanged            -> clone of BASE
//	2. exactly one side changed        -> the changed side's subtree
//	3. deleted on one side, unchanged  -> removed
//	4. deleted on one side, changed    -> delete/modify conflict
//	5. both sides changed, matched     -> recurse into children
//	6. both sides changed, unmatched   -> conflict at the parent
//	7. added on one side only          -> insert the added subtree
//	8. added on both sides, equal      -> insert a single copy
//	9. added on both sides, not equal  -> add/add conflict
package merge

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/linediff"
	"github.com/t03i/jdime/mergectx"
)

// Driver runs the three-way classification and synthesis rules over one
// scenario. It is stateless beyond its configuration: matches must
// already be recorded on the input trees before Merge is called.
type Driver struct {
	ctx   *mergectx.MergeContext
	kinds *artifact.Table
}

// NewDriver builds a merge driver. kinds may be nil (every kind ordered,
// none method-scoped).
func NewDriver(ctx *mergectx.MergeContext, kinds *artifact.Table) *Driver {
	if ctx == nil {
		ctx = mergectx.New()
	}
	if kinds == nil {
		kinds = ctx.Kinds
	}
	if kinds == nil {
		kinds = artifact.DefaultTable()
	}
	return &Driver{ctx: ctx, kinds: kinds}
}

// Merge runs the 3-way merge over one scenario's roots. base may be nil
// only when the scenario itself has no common ancestor (a pure
// diff-only add/add at the root); ordinarily callers pass the BASE root
// and its LEFT/RIGHT matches (via base.Match).
func (d *Driver) Merge(base, left, right *artifact.Artifact) (*artifact.Artifact, error) {
	return d.mergeNode(base, left, right)
}

func newID() artifact.ID {
	return artifact.ID(uuid.NewString())
}

// mergeNode classifies one base/left/right triple and returns the
// synthesized node, or nil when the node is removed from the merged tree
// (deleted on one side and unchanged on the other, or deleted on both).
func (d *Driver) mergeNode(base, left, right *artifact.Artifact) (*artifact.Artifact, error) {
	switch {
	case base == nil:
		return d.mergeAdded(left, right)
	case left == nil && right == nil:
		return nil, nil // deleted on both sides
	case left == nil:
		return d.mergeOneSideDeleted(base, right, artifact.Right)
	case right == nil:
		return d.mergeOneSideDeleted(base, left, artifact.Left)
	default:
		return d.mergeBothPresent(base, left, right)
	}
}

// mergeAdded handles rules 7, 8 and 9: a node with no BASE correspondent.
func (d *Driver) mergeAdded(left, right *artifact.Artifact) (*artifact.Artifact, error) {
	switch {
	case left != nil && right == nil:
		clone := left.CloneDeep(artifact.Merge)
		clone.Added = true
		return clone, nil
	case left == nil && right != nil:
		clone := right.CloneDeep(artifact.Merge)
		clone.Added = true
		return clone, nil
	case left != nil && right.EqualsStructurally(left):
		// rule 8: added on both sides, structurally equal -> one copy.
		clone := left.CloneDeep(artifact.Merge)
		clone.Added = true
		return clone, nil
	default:
		// rule 9: added on both sides, not equal -> conflict. Clone both
		// sides: a conflict artifact owns its children and must not
		// reparent nodes still owned by the input trees.
		return d.conflictOrChoice(left.Kind, artifact.ConflictAddAdd,
			left.CloneDeep(artifact.Merge), right.CloneDeep(artifact.Merge)), nil
	}
}

// mergeOneSideDeleted handles rules 3 and 4 when one side has no match
// for a BASE node at all: present is the surviving side's matched node,
// survivingRevision names which revision it came from (so the conflict,
// if any, can be labeled correctly).
func (d *Driver) mergeOneSideDeleted(base, present *artifact.Artifact, survivingRevision artifact.Revision) (*artifact.Artifact, error) {
	if base.EqualsStructurally(present) {
		return nil, nil // rule 3: unchanged on the surviving side -> removed
	}
	// rule 4: delete/modify conflict.
	deletedRevision := artifact.Left
	if survivingRevision == artifact.Left {
		deletedRevision = artifact.Right
	}
	deleted := deletedPlaceholder(base.Kind, deletedRevision)
	changed := present.CloneDeep(artifact.Merge)
	if survivingRevision == artifact.Left {
		return d.conflictOrChoiceLabeled(base.Kind, artifact.ConflictDeleteModify, string(artifact.Left), string(artifact.Right), changed, deleted), nil
	}
	return d.conflictOrChoiceLabeled(base.Kind, artifact.ConflictDeleteModify, string(artifact.Left), string(artifact.Right), deleted, changed), nil
}

// mergeBothPresent handles rules 1, 2, 5 and 6: both sides have a
// matched node for base.
func (d *Driver) mergeBothPresent(base, left, right *artifact.Artifact) (*artifact.Artifact, error) {
	leftChanged := !base.EqualsStructurally(left)
	rightChanged := !base.EqualsStructurally(right)

	switch {
	case !leftChanged && !rightChanged:
		// rule 1: both unchanged -> clone of BASE.
		clone := base.CloneDeep(artifact.Merge)
		clone.Merged = true
		return clone, nil
	case leftChanged != rightChanged:
		// rule 2: exactly one side changed.
		changed := left
		if rightChanged {
			changed = right
		}
		clone := changed.CloneDeep(artifact.Merge)
		clone.Merged = true
		return clone, nil
	default:
		// Both changed. left and right were reached via base.Match, so
		// they are matched to each other via BASE (rule 5) by
		// construction; recurse into children and synthesize.
		return d.mergeRecursive(base, left, right)
	}
}

// mergeRecursive synthesizes a both-sides-changed node from its merged
// children, or delegates to the line merger for textual leaves.
func (d *Driver) mergeRecursive(base, left, right *artifact.Artifact) (*artifact.Artifact, error) {
	if base.IsLeaf() {
		return d.mergeLeaf(base, left, right)
	}

	children, err := d.mergeChildren(base, left, right)
	if err != nil {
		return nil, errors.Wrapf(err, "merge children of %s", base.Identity)
	}

	merged := artifact.New(artifact.Merge, newID(), base.Kind)
	merged.Merged = true
	if base.Attributes != nil {
		merged.Attributes = make(map[string]string, len(base.Attributes))
		for k, v := range base.Attributes {
			merged.Attributes[k] = v
		}
	}
	for _, c := range children {
		merged.AddChild(c)
	}
	return merged, nil
}

func (d *Driver) conflictOrChoice(kind artifact.Kind, kindFlag artifact.ConflictKind, left, right *artifact.Artifact) *artifact.Artifact {
	return d.conflictOrChoiceLabeled(kind, kindFlag, string(artifact.Left), string(artifact.Right), left, right)
}

func (d *Driver) conflictOrChoiceLabeled(kind artifact.Kind, kindFlag artifact.ConflictKind, leftLabel, rightLabel string, left, right *artifact.Artifact) *artifact.Artifact {
	if d.useConditional(kind) {
		return artifact.NewChoice(newID(), kind,
			artifact.Variant{Label: leftLabel, Content: left},
			artifact.Variant{Label: rightLabel, Content: right},
		)
	}
	labelVariant(left, leftLabel)
	labelVariant(right, rightLabel)
	return artifact.NewConflict(newID(), kindFlag, left, right)
}

// labelVariant records which revision a conflict child came from, so the
// serialized conflict markers can carry the revision names.
func labelVariant(a *artifact.Artifact, label string) {
	if a.Attributes == nil {
		a.Attributes = make(map[string]string, 1)
	}
	a.Attributes["variant"] = label
}

// useConditional reports whether an irreconcilable region becomes a
// choice instead of a conflict: only when ConditionalMerge is set, and —
// unless ConditionalOutsideMethods is also set — only inside
// method-scoped artifacts, per the parser collaborator's kind
// capability table.
func (d *Driver) useConditional(kind artifact.Kind) bool {
	if !d.ctx.ConditionalMerge {
		return false
	}
	if d.ctx.ConditionalOutsideMethods {
		return true
	}
	return d.kinds.MethodScoped(kind)
}

// deletedPlaceholder stands in for the missing side of a delete/modify
// conflict: an empty artifact of the same kind, tagged so callers can
// recognize it without a payload to compare.
func deletedPlaceholder(kind artifact.Kind, revision artifact.Revision) *artifact.Artifact {
	a := artifact.New(artifact.Merge, newID(), kind)
	a.Attributes = map[string]string{"deleted-from": string(revision)}
	return a
}

// mergeLeaf delegates textual leaves to the line merger and converts its
// conflict blocks into conflict (or choice) artifacts.
func (d *Driver) mergeLeaf(base, left, right *artifact.Artifact) (*artifact.Artifact, error) {
	opts := &linediff.Options{
		LabelLeft:  d.label(d.ctx.LabelLeft, string(artifact.Left)),
		LabelBase:  d.label(d.ctx.LabelBase, string(artifact.Base)),
		LabelRight: d.label(d.ctx.LabelRight, string(artifact.Right)),
		Algorithm:  d.ctx.Algorithm,
		Style:      d.ctx.MarkerStyle,
	}
	blocks := linediff.Merge3Blocks(
		linediff.SplitLines(base.Payload),
		linediff.SplitLines(left.Payload),
		linediff.SplitLines(right.Payload),
		opts,
	)

	hasConflict := false
	for _, b := range blocks {
		if b.Conflict != nil {
			hasConflict = true
			break
		}
	}
	if !hasConflict {
		var text string
		for _, b := range blocks {
			for _, l := range b.Lines {
				text += l
			}
		}
		merged := artifact.NewLeaf(artifact.Merge, newID(), base.Kind, text)
		merged.Merged = true
		return merged, nil
	}

	container := artifact.New(artifact.Merge, newID(), base.Kind)
	container.Merged = true
	for _, b := range blocks {
		if b.Conflict == nil {
			var text string
			for _, l := range b.Lines {
				text += l
			}
			container.AddChild(artifact.NewLeaf(artifact.Merge, newID(), base.Kind, text))
			continue
		}
		leftLeaf := artifact.NewLeaf(artifact.Merge, newID(), base.Kind, joinLines(b.Conflict.Left))
		rightLeaf := artifact.NewLeaf(artifact.Merge, newID(), base.Kind, joinLines(b.Conflict.Right))
		container.AddChild(d.conflictOrChoice(base.Kind, artifact.ConflictContent, leftLeaf, rightLeaf))
	}
	return container, nil
}

func (d *Driver) label(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

func joinLines(lines []string) string {
	var out string
	for _, l := range lines {
		out += l
	}
	return out
}

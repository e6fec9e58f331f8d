package merge

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/match"
	"github.com/t03i/jdime/mergectx"
)

func leaf(rev artifact.Revision, id artifact.ID, payload string) *artifact.Artifact {
	return artifact.NewLeaf(rev, id, artifact.KindLine, payload)
}

func newDriver() *Driver {
	return NewDriver(mergectx.New(), artifact.DefaultTable())
}

func TestRule1BothUnchangedClonesBase(t *testing.T) {
	base := leaf(artifact.Base, "b", "same")
	left := leaf(artifact.Left, "l", "same")
	right := leaf(artifact.Right, "r", "same")
	base.SetMatch(left)
	base.SetMatch(right)

	merged, err := newDriver().Merge(base, left, right)
	require.NoError(t, err)
	require.Equal(t, "same", merged.Payload)
	require.True(t, merged.Merged)
}

func TestRule2OneSideChangedWins(t *testing.T) {
	base := leaf(artifact.Base, "b", "orig")
	left := leaf(artifact.Left, "l", "orig")
	right := leaf(artifact.Right, "r", "changed")
	base.SetMatch(left)
	base.SetMatch(right)

	merged, err := newDriver().Merge(base, left, right)
	require.NoError(t, err)
	require.Equal(t, "changed", merged.Payload)
}

func TestRule3DeletedOneSideUnchangedOtherRemoves(t *testing.T) {
	base := leaf(artifact.Base, "b", "same")
	right := leaf(artifact.Right, "r", "same")
	base.SetMatch(right)
	// left has no match recorded: deleted on left.

	merged, err := newDriver().Merge(base, nil, right)
	require.NoError(t, err)
	require.Nil(t, merged)
}

func TestRule4DeleteModifyConflict(t *testing.T) {
	base := leaf(artifact.Base, "b", "orig")
	right := leaf(artifact.Right, "r", "changed")
	base.SetMatch(right)

	merged, err := newDriver().Merge(base, nil, right)
	require.NoError(t, err)
	require.True(t, merged.Conflict)
	require.Equal(t, artifact.ConflictDeleteModify, merged.ConflictKind)
	require.Len(t, merged.Children(), 2)
}

func TestRule8AddAddEqualCollapses(t *testing.T) {
	d := newDriver()
	left := leaf(artifact.Left, "l", "new")
	right := leaf(artifact.Right, "r", "new")

	merged, err := d.Merge(nil, left, right)
	require.NoError(t, err)
	require.False(t, merged.Conflict)
	require.True(t, merged.Added)
	require.Equal(t, "new", merged.Payload)
}

func TestRule9AddAddConflict(t *testing.T) {
	d := newDriver()
	left := leaf(artifact.Left, "l", "new-left")
	right := leaf(artifact.Right, "r", "new-right")

	merged, err := d.Merge(nil, left, right)
	require.NoError(t, err)
	require.True(t, merged.Conflict)
	require.Equal(t, artifact.ConflictAddAdd, merged.ConflictKind)
}

func TestRule9ConditionalModeProducesChoice(t *testing.T) {
	ctx := mergectx.New()
	ctx.ConditionalMerge = true
	ctx.ConditionalOutsideMethods = true
	d := NewDriver(ctx, artifact.DefaultTable())

	left := leaf(artifact.Left, "l", "new-left")
	right := leaf(artifact.Right, "r", "new-right")

	merged, err := d.Merge(nil, left, right)
	require.NoError(t, err)
	require.False(t, merged.Conflict)
	require.True(t, merged.Choice)
	variants := merged.Variants()
	require.Len(t, variants, 2)
	require.Equal(t, "LEFT", variants[0].Label)
	require.Equal(t, "RIGHT", variants[1].Label)
}

func TestLeafTextualConflictBuildsConflictArtifact(t *testing.T) {
	base := leaf(artifact.Base, "b", "alpha\nbeta\n")
	left := leaf(artifact.Left, "l", "ALPHA-LEFT\nbeta\n")
	right := leaf(artifact.Right, "r", "ALPHA-RIGHT\nbeta\n")
	base.SetMatch(left)
	base.SetMatch(right)

	merged, err := newDriver().Merge(base, left, right)
	require.NoError(t, err)
	require.False(t, merged.IsLeaf())
	var sawConflict bool
	for _, c := range merged.Children() {
		if c.Conflict {
			sawConflict = true
			require.Len(t, c.Children(), 2)
		}
	}
	require.True(t, sawConflict)
}

// buildClass constructs a small "class with methods" tree: a
// compilation-unit-like node whose children are "method" nodes, each
// itself holding a "name" leaf and a "body" leaf.
// The name leaf gives the matcher a stable anchor independent of the
// body, so a method whose body changed is still recognized as the same
// method rather than a delete-then-add (a leaf's own content mismatch
// always scores 0, per TreeMatcher.score).
func buildClass(rev artifact.Revision, names []string, bodies map[string]string) *artifact.Artifact {
	root := artifact.New(rev, artifact.ID(string(rev)+"-class"), artifact.Kind("class"))
	for _, name := range names {
		m := artifact.New(rev, artifact.ID(string(rev)+"-"+name), artifact.Kind("method"))
		m.AddChild(artifact.NewLeaf(rev, artifact.ID(string(rev)+"-"+name+"-name"), artifact.Kind("name"), name))
		m.AddChild(artifact.NewLeaf(rev, artifact.ID(string(rev)+"-"+name+"-body"), artifact.Kind("body"), bodies[name]))
		root.AddChild(m)
	}
	return root
}

func methodBody(m *artifact.Artifact) string {
	return m.Children()[1].Payload
}

func methodName(m *artifact.Artifact) string {
	return m.Children()[0].Payload
}

// classKinds marks "class" unordered: method membership in a class is not
// positionally significant for matching purposes, even though the merge
// driver still emits children in LEFT's order.
func classKinds() *artifact.Table {
	return artifact.NewTable(artifact.Capabilities{Ordered: true}, map[artifact.Kind]artifact.Capabilities{
		"class": {Ordered: false},
	})
}

func TestS3ReorderWithoutConflictKeepsRightBody(t *testing.T) {
	kinds := classKinds()
	base := buildClass(artifact.Base, []string{"m1", "m2"}, map[string]string{"m1": "b1", "m2": "b2"})
	left := buildClass(artifact.Left, []string{"m2", "m1"}, map[string]string{"m1": "b1", "m2": "b2"})
	right := buildClass(artifact.Right, []string{"m1", "m2"}, map[string]string{"m1": "b1", "m2": "B2-CHANGED"})

	m := match.NewTreeMatcher(kinds, match.NewTable(match.Full, nil))
	m.Match(base, left)
	m.Match(base, right)

	merged, err := NewDriver(mergectx.New(), kinds).Merge(base, left, right)
	require.NoError(t, err)
	require.Len(t, merged.Children(), 2)
	require.Equal(t, "m2", methodName(merged.Children()[0]))
	require.Equal(t, "B2-CHANGED", methodBody(merged.Children()[0]))
	require.Equal(t, "m1", methodName(merged.Children()[1]))
	require.Equal(t, "b1", methodBody(merged.Children()[1]))
}

func TestS4AddAddEqualMethodCollapsesToOneCopy(t *testing.T) {
	kinds := classKinds()
	base := buildClass(artifact.Base, []string{"m1"}, map[string]string{"m1": "b1"})
	left := buildClass(artifact.Left, []string{"m1", "m2"}, map[string]string{"m1": "b1", "m2": "new"})
	right := buildClass(artifact.Right, []string{"m1", "m2"}, map[string]string{"m1": "b1", "m2": "new"})

	m := match.NewTreeMatcher(kinds, match.NewTable(match.Full, nil))
	m.Match(base, left)
	m.Match(base, right)

	merged, err := NewDriver(mergectx.New(), kinds).Merge(base, left, right)
	require.NoError(t, err)
	require.Len(t, merged.Children(), 2)
	require.Equal(t, "m1", methodName(merged.Children()[0]))
	require.Equal(t, "m2", methodName(merged.Children()[1]))
	require.Equal(t, "new", methodBody(merged.Children()[1]))
}

func TestS5DeleteModifyConflictWrapsRightVersion(t *testing.T) {
	kinds := classKinds()
	base := buildClass(artifact.Base, []string{"m"}, map[string]string{"m": "body"})
	left := buildClass(artifact.Left, []string{}, nil)
	right := buildClass(artifact.Right, []string{"m"}, map[string]string{"m": "body-changed"})

	m := match.NewTreeMatcher(kinds, match.NewTable(match.Full, nil))
	m.Match(base, left)
	m.Match(base, right)

	merged, err := NewDriver(mergectx.New(), kinds).Merge(base, left, right)
	require.NoError(t, err)
	require.Len(t, merged.Children(), 1)
	conflict := merged.Children()[0]
	require.True(t, conflict.Conflict)
	require.Equal(t, artifact.ConflictDeleteModify, conflict.ConflictKind)
	require.Len(t, conflict.Children(), 2)
	foundChanged := false
	for _, c := range conflict.Children() {
		if len(c.Children()) == 2 && methodBody(c) == "body-changed" {
			foundChanged = true
		}
	}
	require.True(t, foundChanged)
}

package merge

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/mergectx"
)

// buildMethod is a method-like tree for the n-way tests: a shared
// statement followed by one revision-specific statement.
func buildMethod(rev artifact.Revision, stmt string) *artifact.Artifact {
	root := artifact.New(rev, artifact.ID(string(rev)+"-root"), artifact.Kind("method"))
	root.AddChild(artifact.NewLeaf(rev, artifact.ID(string(rev)+"-s1"), artifact.Kind("statement"), "common\n"))
	root.AddChild(artifact.NewLeaf(rev, artifact.ID(string(rev)+"-s2"), artifact.Kind("statement"), stmt))
	return root
}

func countConflicts(a *artifact.Artifact) int {
	n := 0
	if a.Conflict {
		n++
	}
	for _, c := range a.Children() {
		n += countConflicts(c)
	}
	return n
}

func findChoice(a *artifact.Artifact) *artifact.Artifact {
	if a.Choice {
		return a
	}
	for _, c := range a.Children() {
		if found := findChoice(c); found != nil {
			return found
		}
	}
	return nil
}

func TestNWayThreeVariantsSingleChoice(t *testing.T) {
	v1 := buildMethod("v1", "one\n")
	v2 := buildMethod("v2", "two\n")
	v3 := buildMethod("v3", "three\n")
	scenario := artifact.NewScenario(
		[]artifact.Revision{"v1", "v2", "v3"},
		map[artifact.Revision]*artifact.Artifact{"v1": v1, "v2": v2, "v3": v3},
	)

	merged, err := NewNWayDriver(mergectx.New(), artifact.DefaultTable()).Merge(scenario)
	require.NoError(t, err)
	require.Equal(t, 0, countConflicts(merged))

	choice := findChoice(merged)
	require.NotNil(t, choice)
	variants := choice.Variants()
	require.Len(t, variants, 3)
	require.Equal(t, "v1", variants[0].Label)
	require.Equal(t, "one\n", variants[0].Content.Payload)
	require.Equal(t, "v2", variants[1].Label)
	require.Equal(t, "v3", variants[2].Label)
	require.Equal(t, "three\n", variants[2].Content.Payload)
}

func TestNWayRevisionAgreeingWithAVariantExtendsItsLabel(t *testing.T) {
	v1 := buildMethod("v1", "one\n")
	v2 := buildMethod("v2", "two\n")
	v3 := buildMethod("v3", "one\n") // agrees with v1
	scenario := artifact.NewScenario(
		[]artifact.Revision{"v1", "v2", "v3"},
		map[artifact.Revision]*artifact.Artifact{"v1": v1, "v2": v2, "v3": v3},
	)

	merged, err := NewNWayDriver(mergectx.New(), artifact.DefaultTable()).Merge(scenario)
	require.NoError(t, err)

	choice := findChoice(merged)
	require.NotNil(t, choice)
	variants := choice.Variants()
	require.Len(t, variants, 2)
	require.Equal(t, "v1+v3", variants[0].Label)
	require.Equal(t, "v2", variants[1].Label)
}

func TestNWayIdenticalRevisionsFoldWithoutChoices(t *testing.T) {
	v1 := buildMethod("v1", "same\n")
	v2 := buildMethod("v2", "same\n")
	scenario := artifact.NewScenario(
		[]artifact.Revision{"v1", "v2"},
		map[artifact.Revision]*artifact.Artifact{"v1": v1, "v2": v2},
	)

	merged, err := NewNWayDriver(mergectx.New(), artifact.DefaultTable()).Merge(scenario)
	require.NoError(t, err)
	require.Nil(t, findChoice(merged))
	require.Equal(t, 0, countConflicts(merged))
	require.True(t, merged.EqualsStructurally(v1))
}

func TestNWayRejectsSingleRevision(t *testing.T) {
	v1 := buildMethod("v1", "one\n")
	scenario := artifact.NewScenario(
		[]artifact.Revision{"v1"},
		map[artifact.Revision]*artifact.Artifact{"v1": v1},
	)
	_, err := NewNWayDriver(mergectx.New(), artifact.DefaultTable()).Merge(scenario)
	require.Error(t, err)
}

package linediff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerge3NonOverlappingChangesApplyCleanly(t *testing.T) {
	base := "alpha\nbeta\ngamma\n"
	left := "ALPHA\nbeta\ngamma\n"
	right := "alpha\nbeta\nGAMMA\n"

	merged, conflicts := Merge3(base, left, right, nil)
	require.Equal(t, 0, conflicts)
	require.Equal(t, "ALPHA\nbeta\nGAMMA\n", merged)
}

func TestMerge3OverlappingChangesConflict(t *testing.T) {
	base := "alpha\nbeta\ngamma\n"
	left := "ALPHA-LEFT\nbeta\ngamma\n"
	right := "ALPHA-RIGHT\nbeta\ngamma\n"

	merged, conflicts := Merge3(base, left, right, nil)
	require.Equal(t, 1, conflicts)
	require.Contains(t, merged, MarkerOpenLeft)
	require.Contains(t, merged, MarkerSeparator)
	require.Contains(t, merged, MarkerCloseRight)
	require.Contains(t, merged, "ALPHA-LEFT")
	require.Contains(t, merged, "ALPHA-RIGHT")
}

func TestMerge3IdenticalChangeIsNotAConflict(t *testing.T) {
	base := "alpha\nbeta\n"
	left := "ALPHA\nbeta\n"
	right := "ALPHA\nbeta\n"

	merged, conflicts := Merge3(base, left, right, nil)
	require.Equal(t, 0, conflicts)
	require.Equal(t, "ALPHA\nbeta\n", merged)
}

func TestMerge3IdenticalEditOnBothSidesCollapses(t *testing.T) {
	base := "alpha\nbeta\ngamma\n"
	left := "ALPHA\nbeta-left\ngamma\n"
	right := "ALPHA\nbeta-left\ngamma\n"

	merged, conflicts := Merge3(base, left, right, nil)
	require.Equal(t, 0, conflicts)
	require.Equal(t, "ALPHA\nbeta-left\ngamma\n", merged)
}

func TestMerge3Diff3StyleShowsBaseHunk(t *testing.T) {
	base := "alpha\n"
	left := "LEFT\n"
	right := "RIGHT\n"

	opts := &Options{Style: StyleDiff3, LabelLeft: "ours", LabelBase: "orig", LabelRight: "theirs"}
	merged, conflicts := Merge3(base, left, right, opts)
	require.Equal(t, 1, conflicts)
	require.Contains(t, merged, MarkerBase+" orig")
	require.Contains(t, merged, "alpha\n")
	require.Contains(t, merged, MarkerOpenLeft+" ours")
	require.Contains(t, merged, MarkerCloseRight+" theirs")
}

func TestMerge3DeletionVsModificationConflicts(t *testing.T) {
	base := "one\ntwo\nthree\n"
	left := "one\nthree\n"
	right := "one\nTWO\nthree\n"

	_, conflicts := Merge3(base, left, right, nil)
	require.Equal(t, 1, conflicts)
}

func TestMerge3EqualInputsIsIdentity(t *testing.T) {
	text := "alpha\nbeta\ngamma\n"
	merged, conflicts := Merge3(text, text, text, nil)
	require.Equal(t, 0, conflicts)
	require.Equal(t, text, merged)
}

func TestMerge3TrivialSideMerge(t *testing.T) {
	base := "alpha\nbeta\n"
	changed := "alpha\nBETA\nextra\n"

	merged, conflicts := Merge3(base, base, changed, nil)
	require.Equal(t, 0, conflicts)
	require.Equal(t, changed, merged)

	merged, conflicts = Merge3(base, changed, base, nil)
	require.Equal(t, 0, conflicts)
	require.Equal(t, changed, merged)
}

func TestMerge3MergedOutputIsStableAgainstParent(t *testing.T) {
	base := "a\nb\nc\n"
	left := "a\nB\nc\n"
	right := "a\nb\nC\n"

	first, conflicts := Merge3(base, left, right, nil)
	require.Equal(t, 0, conflicts)

	again, conflicts := Merge3(left, first, left, nil)
	require.Equal(t, 0, conflicts)
	require.Equal(t, first, again)
}

func TestDiffHistogramAndMyersAgreeOnLength(t *testing.T) {
	before := []string{"a", "b", "c", "d", "e"}
	after := []string{"a", "x", "c", "y", "e"}

	h := Diff(before, after, Histogram)
	m := Diff(before, after, Myers)

	applyBoth := func(changes []Change) []string {
		var out []string
		pos := 0
		for _, c := range changes {
			out = append(out, before[pos:c.P1]...)
			out = append(out, after[c.P2:c.P2+c.Ins]...)
			pos = c.P1 + c.Del
		}
		out = append(out, before[pos:]...)
		return out
	}
	require.Equal(t, after, applyBoth(h))
	require.Equal(t, after, applyBoth(m))
}

func TestSplitLinesPreservesNewlines(t *testing.T) {
	require.Equal(t, []string{"a\n", "b\n", "c"}, splitLines("a\nb\nc"))
	require.Nil(t, splitLines(""))
}

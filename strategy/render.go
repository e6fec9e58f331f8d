package strategy

import (
	"strings"

	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/linediff"
)

// renderText flattens a merged tree back into bytes: a conflict
// artifact renders as the three-way marker block around its two
// variants' text; a choice artifact renders as a labeled inline block
// per variant. Every other node renders as the concatenation of its
// children's (or its own payload's) text. Returns the rendered text and
// the number of conflict blocks encountered.
func renderText(root *artifact.Artifact) (string, int) {
	var out strings.Builder
	conflicts := renderNode(&out, root)
	return out.String(), conflicts
}

func renderNode(out *strings.Builder, a *artifact.Artifact) int {
	switch {
	case a.Conflict:
		kids := a.Children()
		out.WriteString(linediff.MarkerOpenLeft + variantLabel(kids[0]) + "\n")
		renderNode(out, kids[0])
		out.WriteString(linediff.MarkerSeparator + "\n")
		renderNode(out, kids[1])
		out.WriteString(linediff.MarkerCloseRight + variantLabel(kids[1]) + "\n")
		return 1
	case a.Choice:
		conflicts := 0
		for _, v := range a.Variants() {
			out.WriteString("<<<choice " + v.Label + "\n")
			conflicts += renderNode(out, v.Content)
			out.WriteString(">>>choice " + v.Label + "\n")
		}
		return conflicts
	case a.IsLeaf():
		out.WriteString(a.Payload)
		return 0
	default:
		conflicts := 0
		for _, c := range a.Children() {
			conflicts += renderNode(out, c)
		}
		return conflicts
	}
}

// variantLabel returns the revision name the merge driver recorded on a
// conflict child, so the markers carry the revision names.
func variantLabel(a *artifact.Artifact) string {
	if l := a.Attributes["variant"]; l != "" {
		return " " + l
	}
	return ""
}

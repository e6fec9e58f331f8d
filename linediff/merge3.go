package linediff

import (
	"sort"
	"strings"
)

// Conflict marker bytes: the classic diff3 form, which most text-merge
// viewers already round-trip.
const (
	MarkerOpenLeft   = "<<<<<<<"
	MarkerBase       = "|||||||"
	MarkerSeparator  = "======="
	MarkerCloseRight = ">>>>>>>"
)

// Style picks how much base context a conflict block shows.
type Style int

const (
	// StyleDefault shows only the minimized differing lines of each side.
	StyleDefault Style = iota
	// StyleDiff3 shows the full (non-minimized) left/base/right hunks.
	StyleDiff3
	// StyleZealousDiff3 minimizes left/right but still shows the base.
	StyleZealousDiff3
)

// Options configures a three-way line merge.
type Options struct {
	LabelLeft, LabelBase, LabelRight string
	Algorithm                       Algorithm
	Style                           Style
}

func (o *Options) algorithm() Algorithm {
	if o == nil || o.Algorithm == Unspecified {
		return Histogram
	}
	return o.Algorithm
}

// mergeSpan is one entry of the merged index list. side is -1 for a
// conflict (left/base/right spans all recorded), -2 for an unchanged run
// of base lines at [baseLo, baseLo+baseLen), 0 for an accepted left change
// at [leftLo, leftLo+leftLen), and 2 for an accepted right change at
// [rightLo, rightLo+rightLen).
type mergeSpan struct {
	side              int
	leftLo, leftLen   int
	baseLo, baseLen   int
	rightLo, rightLen int
}

type hunkSide int

const (
	sideLeft hunkSide = iota
	sideRight
)

type hunk struct {
	baseStart int
	side      hunkSide
	baseLen   int
	otherLo   int
	otherLen  int
}

// diff3Indices computes the merged span list for base/left/right,
// following the algorithm in Khanna, Kunal & Pierce, "A Formal
// Investigation of Diff3": collect the base->left and base->right edit
// scripts, sort their hunks by base position, and fold overlapping hunks
// into either an accepted one-sided change or a conflict spanning the
// union of both sides.
func diff3Indices(base, left, right []string, algo Algorithm) []mergeSpan {
	toLeft := Diff[string](base, left, algo)
	toRight := Diff[string](base, right, algo)

	hunks := make([]hunk, 0, len(toLeft)+len(toRight))
	for _, c := range toLeft {
		hunks = append(hunks, hunk{baseStart: c.P1, side: sideLeft, baseLen: c.Del, otherLo: c.P2, otherLen: c.Ins})
	}
	for _, c := range toRight {
		hunks = append(hunks, hunk{baseStart: c.P1, side: sideRight, baseLen: c.Del, otherLo: c.P2, otherLen: c.Ins})
	}
	sort.SliceStable(hunks, func(i, j int) bool { return hunks[i].baseStart < hunks[j].baseStart })

	var spans []mergeSpan
	commonTo := 0
	flushCommon := func(upTo int) {
		if upTo > commonTo {
			spans = append(spans, mergeSpan{side: -2, baseLo: commonTo, baseLen: upTo - commonTo})
			commonTo = upTo
		}
	}

	for idx := 0; idx < len(hunks); {
		first := idx
		lo := hunks[idx].baseStart
		hi := lo + hunks[idx].baseLen
		for idx < len(hunks)-1 {
			next := hunks[idx+1]
			// A hunk that starts exactly where a non-empty region ends and
			// itself replaces or deletes base lines only touches it; it
			// does not overlap.
			if next.baseStart > hi || (next.baseStart == hi && hi > lo && next.baseLen > 0) {
				break
			}
			if end := next.baseStart + next.baseLen; end > hi {
				hi = end
			}
			idx++
		}

		flushCommon(lo)
		if idx == first {
			h := hunks[first]
			if h.otherLen > 0 {
				if h.side == sideLeft {
					spans = append(spans, mergeSpan{side: 0, leftLo: h.otherLo, leftLen: h.otherLen})
				} else {
					spans = append(spans, mergeSpan{side: 2, rightLo: h.otherLo, rightLen: h.otherLen})
				}
			}
		} else {
			leftLo, leftHi := len(left), -1
			rightLo, rightHi := len(right), -1
			for i := first; i <= idx; i++ {
				h := hunks[i]
				oLo, oHi := h.otherLo, h.otherLo+h.otherLen
				if h.side == sideLeft {
					leftLo = min(leftLo, oLo)
					leftHi = max(leftHi, oHi)
				} else {
					rightLo = min(rightLo, oLo)
					rightHi = max(rightHi, oHi)
				}
			}
			// Hunks that never touched one side keep that side's span
			// equal to the corresponding base range (no divergence there).
			if leftHi < 0 {
				leftLo, leftHi = lo, hi
			}
			if rightHi < 0 {
				rightLo, rightHi = lo, hi
			}
			spans = append(spans, mergeSpan{
				side:    -1,
				leftLo:  leftLo, leftLen: leftHi - leftLo,
				baseLo:  lo, baseLen: hi - lo,
				rightLo: rightLo, rightLen: rightHi - rightLo,
			})
		}
		commonTo = hi
		idx++
	}
	flushCommon(len(base))
	return spans
}

// Block is one merged region: either Lines is set (accepted content) or
// Conflict is set.
type Block struct {
	Lines    []string
	Conflict *ConflictBlock
}

// ConflictBlock holds the three spans of an irreconcilable region.
type ConflictBlock struct {
	Left, Base, Right []string
}

func sameLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Merge3Blocks runs the diff3 algorithm and returns the alternating
// accepted/conflict block stream; useful to callers (e.g. the structured
// merge driver) that want the conflict spans without the rendered marker
// text.
func Merge3Blocks(base, left, right []string, opts *Options) []Block {
	spans := diff3Indices(base, left, right, opts.algorithm())
	files := [][]string{left, base, right}

	var blocks []Block
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			blocks = append(blocks, Block{Lines: pending})
			pending = nil
		}
	}
	for _, s := range spans {
		switch s.side {
		case -2:
			pending = append(pending, base[s.baseLo:s.baseLo+s.baseLen]...)
		case 0:
			pending = append(pending, files[0][s.leftLo:s.leftLo+s.leftLen]...)
		case 2:
			pending = append(pending, files[2][s.rightLo:s.rightLo+s.rightLen]...)
		default: // -1: conflict
			leftLines := left[s.leftLo : s.leftLo+s.leftLen]
			rightLines := right[s.rightLo : s.rightLo+s.rightLen]
			if sameLines(leftLines, rightLines) {
				// Both sides made the identical edit; nothing to reconcile.
				pending = append(pending, leftLines...)
				continue
			}
			flush()
			blocks = append(blocks, Block{Conflict: &ConflictBlock{
				Left:  leftLines,
				Base:  base[s.baseLo : s.baseLo+s.baseLen],
				Right: rightLines,
			}})
		}
	}
	flush()
	return blocks
}

// Merge3 performs a three-way line merge of base/left/right text,
// rendering conflicts with the configured Style. It returns the merged
// text and the number of conflict blocks.
func Merge3(base, left, right string, opts *Options) (string, int) {
	if opts == nil {
		opts = &Options{}
	}
	blocks := Merge3Blocks(splitLines(base), splitLines(left), splitLines(right), opts)

	var out strings.Builder
	out.Grow(len(base) + len(left) + len(right))
	conflicts := 0
	for _, b := range blocks {
		if b.Conflict == nil {
			writeLines(&out, b.Lines)
			continue
		}
		conflicts++
		writeConflict(&out, b.Conflict, opts)
	}
	return out.String(), conflicts
}

func label(base string) string {
	if base == "" {
		return ""
	}
	return " " + base
}

func writeConflict(out *strings.Builder, c *ConflictBlock, opts *Options) {
	left := ensureTrailingNewline(c.Left)
	right := ensureTrailingNewline(c.Right)

	if opts.Style == StyleDiff3 {
		out.WriteString(MarkerOpenLeft + label(opts.LabelLeft) + "\n")
		writeLines(out, left)
		out.WriteString(MarkerBase + label(opts.LabelBase) + "\n")
		writeLines(out, c.Base)
		out.WriteString(MarkerSeparator + "\n")
		writeLines(out, right)
		out.WriteString(MarkerCloseRight + label(opts.LabelRight) + "\n")
		return
	}

	suffix := commonSuffixLen(left, right)

	out.WriteString(MarkerOpenLeft + label(opts.LabelLeft) + "\n")
	writeLines(out, left[:len(left)-suffix])
	if opts.Style == StyleZealousDiff3 {
		out.WriteString(MarkerBase + label(opts.LabelBase) + "\n")
		writeLines(out, c.Base)
	}
	out.WriteString(MarkerSeparator + "\n")
	writeLines(out, right[:len(right)-suffix])
	out.WriteString(MarkerCloseRight + label(opts.LabelRight) + "\n")
	if suffix != 0 {
		writeLines(out, right[len(right)-suffix:])
	}
}

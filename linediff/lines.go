package linediff

import "strings"

// SplitLines tokenizes text into lines, each one keeping its trailing "\n"
// except possibly the last. Exported so the structured merge driver can
// build per-block artifacts out of Merge3Blocks' spans when it converts a
// textual leaf's conflict blocks into conflict artifacts.
func SplitLines(text string) []string {
	return splitLines(text)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for pos := 0; pos < len(text); {
		part := text[pos:]
		nl := strings.IndexByte(part, '\n')
		if nl == -1 {
			lines = append(lines, part)
			break
		}
		lines = append(lines, part[:nl+1])
		pos += nl + 1
	}
	return lines
}

func writeLines(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString(l)
	}
}

// ensureTrailingNewline appends "\n" to the last element of lines if it
// is missing one, so conflict markers that follow always start their own
// line.
func ensureTrailingNewline(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	last := lines[len(lines)-1]
	if strings.HasSuffix(last, "\n") {
		return lines
	}
	out := make([]string, len(lines))
	copy(out, lines)
	out[len(out)-1] = last + "\n"
	return out
}

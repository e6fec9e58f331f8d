package match

import "github.com/t03i/jdime/artifact"

// Depth expresses a look-ahead bound. Off disables descent past a root
// mismatch; Full descends without limit.
type Depth int

const (
	Off  Depth = 0
	Full Depth = -1
)

// ParseDepth reads a look-ahead configuration token: an integer >= 0, or
// the tokens "off" (= 0) and "full" (= unbounded).
func ParseDepth(token string) (Depth, bool) {
	switch token {
	case "off", "":
		return Off, true
	case "full":
		return Full, true
	}
	n := 0
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return Depth(n), true
}

// Table resolves a per-kind look-ahead override, falling back to a
// global default.
type Table struct {
	global  Depth
	perKind map[artifact.Kind]Depth
}

// NewTable builds a look-ahead table. A nil overrides map means every
// kind uses global.
func NewTable(global Depth, overrides map[artifact.Kind]Depth) *Table {
	t := &Table{global: global, perKind: make(map[artifact.Kind]Depth, len(overrides))}
	for k, v := range overrides {
		t.perKind[k] = v
	}
	return t
}

// For returns the effective look-ahead depth for kind.
func (t *Table) For(kind artifact.Kind) Depth {
	if t == nil {
		return Off
	}
	if d, ok := t.perKind[kind]; ok {
		return d
	}
	return t.global
}

// Allows reports whether the matcher may still descend past a root
// mismatch at the given recursion depth (1 = first extra level below the
// mismatched roots).
func (t *Table) Allows(kind artifact.Kind, depth int) bool {
	switch d := t.For(kind); d {
	case Full:
		return true
	case Off:
		return false
	default:
		return depth <= int(d)
	}
}

// Package mergectx implements the merge context: the configuration
// record plus mutable per-run state (crash registry, buffered sinks)
// that is explicitly threaded through every call instead of living in
// package globals. Cancellation is expressed as a context.Context
// parameter on the calls that check it, rather than a field stored on
// MergeContext.
package mergectx

import (
	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/linediff"
	"github.com/t03i/jdime/match"
)

// MergeContext is the configuration-plus-state record one merge
// invocation carries.
type MergeContext struct {
	// Lookahead and Kinds configure the matcher.
	Lookahead *match.Table
	Kinds     *artifact.Table

	// UseCostModel switches the structured strategy from the
	// divide-and-conquer TreeMatcher to the optional global
	// CostModelMatcher.
	UseCostModel bool
	CostModel    match.CostModelOptions

	// ConditionalMerge and ConditionalOutsideMethods gate the choice-node
	// substitution for irreconcilable regions.
	ConditionalMerge          bool
	ConditionalOutsideMethods bool

	// KeepGoing records recoverable per-file errors and continues;
	// ExitOnError overrides it and makes the first failure fatal.
	KeepGoing   bool
	ExitOnError bool

	// MarkerStyle and Algorithm configure the line-merge fallback and the
	// textual leaves of a structured merge.
	MarkerStyle linediff.Style
	Algorithm   linediff.Algorithm
	LabelLeft   string
	LabelBase   string
	LabelRight  string

	registry *CrashRegistry
	stdout   *Sink
	stderr   *Sink
}

// New builds a MergeContext with the core's conservative defaults: no
// look-ahead, every kind ordered, cost model off, conditional merge off,
// stop on the first unrecoverable error.
func New() *MergeContext {
	return &MergeContext{
		Lookahead:   match.NewTable(match.Off, nil),
		Kinds:       artifact.DefaultTable(),
		CostModel:   match.DefaultCostModelOptions(),
		MarkerStyle: linediff.StyleDefault,
		registry:    NewCrashRegistry(),
		stdout:      NewSink(),
		stderr:      NewSink(),
	}
}

// Registry returns the shared crash registry, owned by the top-level
// invocation and passed by reference to sub-merges.
func (c *MergeContext) Registry() *CrashRegistry { return c.registry }

// Stdout returns the shared output buffer sink.
func (c *MergeContext) Stdout() *Sink { return c.stdout }

// Stderr returns the shared diagnostic buffer sink.
func (c *MergeContext) Stderr() *Sink { return c.stderr }

// Clone copies the configuration fields for an isolated sub-merge view
// while keeping the crash registry and sinks shared by reference: those
// are append-only and must accumulate across the whole run, but a
// sub-merge must not observe a caller's *later* mutation of e.g.
// ConditionalMerge.
func (c *MergeContext) Clone() *MergeContext {
	clone := *c
	return &clone
}

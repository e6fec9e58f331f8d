// Package strategy implements the named-strategy dispatcher: it
// normalizes a strategy name, resolves it to a merge behavior, and runs
// it over one file-level scenario (or, for directory inputs, recurses
// pairing files by path). Parsing and file I/O are collaborators
// supplied by the caller (tree-sitter, a language front-end, the OS
// filesystem, an object store) without this package importing any of
// them.
package strategy

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/linediff"
	"github.com/t03i/jdime/merge"
	"github.com/t03i/jdime/mergectx"
	"github.com/t03i/jdime/mergeerr"
)

// Name is a normalized strategy name, keyed into the dispatch table.
type Name string

const (
	LineBased  Name = "linebased"
	Structured Name = "structured"
	Combined   Name = "combined"
	NWay       Name = "nway"
)

// canonical maps every recognized spelling onto one of the four
// behaviors above ("unstructured" and "linebased" share a handler; so do
// "autotuning" and "combined"; "variants" and "nway").
var canonical = map[string]Name{
	"linebased":    LineBased,
	"unstructured": LineBased,
	"structured":   Structured,
	"combined":     Combined,
	"autotuning":   Combined,
	"nway":         NWay,
	"variants":     NWay,
}

// Normalize resolves a strategy name, case-insensitively and ignoring
// surrounding whitespace.
func Normalize(raw string) (Name, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	name, ok := canonical[key]
	if !ok {
		return "", errors.Wrapf(mergeerr.ErrStrategyNotFound, "strategy %q", raw)
	}
	return name, nil
}

// Parser is the parse collaborator: it turns file bytes into an
// artifact tree tagged with the given revision. A parser that cannot
// handle its input must return an error wrapping
// mergeerr.ErrParseFailure so Combined can fall back to the line
// merger.
type Parser func(ctx context.Context, data []byte, revision artifact.Revision) (*artifact.Artifact, error)

// Suitable reports, when non-nil, whether a parsed tree's root kind is
// fit for structured merging; Combined falls back to LineBased for kinds
// it flags unsuitable even when parsing itself succeeded.
type Suitable func(kind artifact.Kind) bool

// Dispatcher resolves a Name to a merge run. It holds the collaborators
// and the shared merge context; Run and RunTree are safe to call
// concurrently across independent scenarios since the context's mutable
// state (crash registry, sinks) is append-only.
type Dispatcher struct {
	ctx      *mergectx.MergeContext
	kinds    *artifact.Table
	parse    Parser
	suitable Suitable
}

// New builds a dispatcher. kinds and suitable may be nil: kinds defaults
// to every kind ordered, suitable defaults to "every parsed kind fits".
func New(ctx *mergectx.MergeContext, kinds *artifact.Table, parse Parser, suitable Suitable) *Dispatcher {
	if ctx == nil {
		ctx = mergectx.New()
	}
	if kinds == nil {
		kinds = ctx.Kinds
	}
	if kinds == nil {
		kinds = artifact.DefaultTable()
	}
	if suitable == nil {
		suitable = func(artifact.Kind) bool { return true }
	}
	return &Dispatcher{ctx: ctx, kinds: kinds, parse: parse, suitable: suitable}
}

// Result is the outcome of one file-level merge.
type Result struct {
	Merged    []byte
	Conflicts int
	Strategy  Name // the strategy actually used (Combined may fall back)
}

// Run merges one scenario of raw file bytes under LineBased, Structured
// or Combined; NWay scenarios go through RunNWay and are rejected here.
// A nil base means no common ancestor: Structured then folds left and
// right with the n-way driver, and LineBased merges against an empty
// base.
func (d *Dispatcher) Run(ctx context.Context, name Name, base, left, right []byte) (*Result, error) {
	switch name {
	case LineBased:
		return d.runLineBased(left, right, base)
	case Structured:
		return d.runStructured(ctx, base, left, right)
	case Combined:
		res, err := d.runStructured(ctx, base, left, right)
		if err == nil {
			return res, nil
		}
		if !mergeerr.IsRecoverable(err) && !errors.Is(err, errUnsuitableKind) {
			return nil, err
		}
		return d.runLineBased(left, right, base)
	default:
		return nil, errors.Errorf("strategy: %s does not merge a single file pair directly (use RunNWay)", name)
	}
}

// RunNWay merges arity-n scenarios with no single BASE, always in
// conditional-merge mode, and serializes the result through render so
// callers get bytes back like every other strategy. A nil render uses
// the package's own textual serialization (labeled choice blocks).
func (d *Dispatcher) RunNWay(scenario *artifact.Scenario, render func(*artifact.Artifact) ([]byte, int, error)) (*Result, error) {
	if render == nil {
		render = func(a *artifact.Artifact) ([]byte, int, error) {
			text, conflicts := renderText(a)
			return []byte(text), conflicts, nil
		}
	}
	conditionalCtx := d.ctx.Clone()
	conditionalCtx.ConditionalMerge = true
	driver := merge.NewNWayDriver(conditionalCtx, d.kinds)
	root, err := driver.Merge(scenario)
	if err != nil {
		return nil, err
	}
	out, conflicts, err := render(root)
	if err != nil {
		return nil, err
	}
	return &Result{Merged: out, Conflicts: conflicts, Strategy: NWay}, nil
}

func (d *Dispatcher) runLineBased(left, right, base []byte) (*Result, error) {
	opts := &linediff.Options{
		LabelLeft:  d.label(d.ctx.LabelLeft, string(artifact.Left)),
		LabelBase:  d.label(d.ctx.LabelBase, string(artifact.Base)),
		LabelRight: d.label(d.ctx.LabelRight, string(artifact.Right)),
		Algorithm:  d.ctx.Algorithm,
		Style:      d.ctx.MarkerStyle,
	}
	merged, conflicts := linediff.Merge3(string(base), string(left), string(right), opts)
	return &Result{Merged: []byte(merged), Conflicts: conflicts, Strategy: LineBased}, nil
}

var errUnsuitableKind = errors.New("strategy: parsed root kind unsuitable for structured merge")

func (d *Dispatcher) runStructured(ctx context.Context, baseBytes, leftBytes, rightBytes []byte) (*Result, error) {
	if d.parse == nil {
		return nil, errors.Wrap(mergeerr.ErrParseFailure, "strategy: no parser collaborator configured")
	}

	var baseTree *artifact.Artifact
	var err error
	if baseBytes != nil {
		baseTree, err = d.parse(ctx, baseBytes, artifact.Base)
		if err != nil {
			return nil, errors.Wrap(mergeerr.ErrParseFailure, err.Error())
		}
	}
	leftTree, err := d.parse(ctx, leftBytes, artifact.Left)
	if err != nil {
		return nil, errors.Wrap(mergeerr.ErrParseFailure, err.Error())
	}
	rightTree, err := d.parse(ctx, rightBytes, artifact.Right)
	if err != nil {
		return nil, errors.Wrap(mergeerr.ErrParseFailure, err.Error())
	}

	root := leftTree
	if baseTree != nil {
		root = baseTree
	}
	if !d.suitable(root.Kind) {
		return nil, errUnsuitableKind
	}

	var merged *artifact.Artifact
	if baseTree != nil {
		if err := matchPair(ctx, d.ctx, d.kinds, baseTree, leftTree); err != nil {
			return nil, err
		}
		if err := matchPair(ctx, d.ctx, d.kinds, baseTree, rightTree); err != nil {
			return nil, err
		}
		driver := merge.NewDriver(d.ctx, d.kinds)
		merged, err = driver.Merge(baseTree, leftTree, rightTree)
	} else {
		// No common ancestor: defer to the n-way driver's own matcher
		// (always full look-ahead) rather than matching here and
		// discarding the result.
		nway := merge.NewNWayDriver(d.ctx, d.kinds)
		merged, err = nway.Merge(artifact.NewScenario(
			[]artifact.Revision{artifact.Left, artifact.Right},
			map[artifact.Revision]*artifact.Artifact{artifact.Left: leftTree, artifact.Right: rightTree},
		))
	}
	if err != nil {
		return nil, err
	}

	text, conflicts := renderText(merged)
	return &Result{Merged: []byte(text), Conflicts: conflicts, Strategy: Structured}, nil
}

func (d *Dispatcher) label(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

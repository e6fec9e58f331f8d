package strategy

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/merge"
	"github.com/t03i/jdime/mergeerr"
)

// FileIO is the file-I/O collaborator. Paths are always relative to the
// scenario root the caller passed to RunTree.
type FileIO interface {
	IsDirectory(path string) bool
	ListChildren(path string) ([]string, error)
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
}

// RunTree merges a directory scenario, recursing to pair files by path:
// it unions the relative paths present under any of
// basePath/leftPath/rightPath, merges each file with the named strategy,
// and writes every output through io. basePath may be "" when the
// scenario has no common ancestor (only LineBased/Structured/Combined
// require one).
//
// Presence/absence across revisions is handled per path by delegating to
// merge.Driver on a pair of whole-file leaf artifacts — the same
// add/delete rules every other level of this system uses, applied at the
// filesystem level. A path present in all three revisions instead goes
// through Run with the caller's chosen strategy, since only then is
// there real file content worth structurally parsing.
func (d *Dispatcher) RunTree(ctx context.Context, name Name, io FileIO, basePath, leftPath, rightPath string) (map[string]*Result, error) {
	paths, err := unionPaths(io, basePath, leftPath, rightPath)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*Result, len(paths))
	for _, p := range paths {
		// Cooperative cancellation between files.
		if cerr := ctx.Err(); cerr != nil {
			d.ctx.Registry().Record(p, errors.Wrap(mergeerr.ErrCancelled, cerr.Error()))
			return nil, errors.Wrap(mergeerr.ErrCancelled, cerr.Error())
		}
		baseBytes, hasBase, err := readIfPresent(io, basePath, p)
		if err != nil {
			return nil, err
		}
		leftBytes, hasLeft, err := readIfPresent(io, leftPath, p)
		if err != nil {
			return nil, err
		}
		rightBytes, hasRight, err := readIfPresent(io, rightPath, p)
		if err != nil {
			return nil, err
		}

		var res *Result
		switch {
		case hasBase && hasLeft && hasRight:
			res, err = d.Run(ctx, name, baseBytes, leftBytes, rightBytes)
		default:
			res, err = d.mergePresence(hasBase, baseBytes, hasLeft, leftBytes, hasRight, rightBytes)
		}
		if err != nil {
			if d.ctx.ExitOnError || !mergeerr.IsRecoverable(err) {
				return nil, errors.Wrapf(err, "merge %s", p)
			}
			d.ctx.Registry().Record(p, err)
			if !d.ctx.KeepGoing {
				return results, nil
			}
			continue
		}
		if res == nil {
			continue // deleted on both sides, or unchanged-side deletion: nothing to write
		}
		results[p] = res
		if err := io.Write(p, res.Merged); err != nil {
			return nil, errors.Wrapf(mergeerr.ErrInputInaccessible, "write %s: %v", p, err)
		}
	}
	return results, nil
}

// mergePresence handles a path missing from one or more revisions by
// running the generic merge rules over whole-file leaf artifacts, rather
// than the chosen per-file strategy (there being no content worth
// parsing on the missing side).
func (d *Dispatcher) mergePresence(hasBase bool, baseBytes []byte, hasLeft bool, leftBytes []byte, hasRight bool, rightBytes []byte) (*Result, error) {
	toLeaf := func(present bool, data []byte, rev artifact.Revision) *artifact.Artifact {
		if !present {
			return nil
		}
		return artifact.NewLeaf(rev, artifact.ID(rev), artifact.KindFile, string(data))
	}
	baseArt := toLeaf(hasBase, baseBytes, artifact.Base)
	leftArt := toLeaf(hasLeft, leftBytes, artifact.Left)
	rightArt := toLeaf(hasRight, rightBytes, artifact.Right)

	if baseArt != nil {
		if leftArt != nil {
			baseArt.SetMatch(leftArt)
		}
		if rightArt != nil {
			baseArt.SetMatch(rightArt)
		}
	}

	driver := merge.NewDriver(d.ctx, d.kinds)
	merged, err := driver.Merge(baseArt, leftArt, rightArt)
	if err != nil {
		return nil, err
	}
	if merged == nil {
		return nil, nil
	}
	text, conflicts := renderText(merged)
	return &Result{Merged: []byte(text), Conflicts: conflicts, Strategy: LineBased}, nil
}

func readIfPresent(io FileIO, root, path string) ([]byte, bool, error) {
	if root == "" {
		return nil, false, nil
	}
	full := joinPath(root, path)
	if io.IsDirectory(full) {
		return nil, false, nil
	}
	if path != "" {
		// A path not listed under this revision's root is absent there.
		parent, name := root, path
		if i := strings.LastIndexByte(path, '/'); i >= 0 {
			parent, name = joinPath(root, path[:i]), path[i+1:]
		}
		if !io.IsDirectory(parent) {
			return nil, false, nil
		}
		siblings, err := io.ListChildren(parent)
		if err != nil {
			return nil, false, errors.Wrapf(mergeerr.ErrInputInaccessible, "list %s: %v", parent, err)
		}
		if !slices.Contains(siblings, name) {
			return nil, false, nil
		}
	}
	data, err := io.Read(full)
	if err != nil {
		return nil, false, errors.Wrapf(mergeerr.ErrInputInaccessible, "read %s: %v", full, err)
	}
	return data, true, nil
}

func unionPaths(io FileIO, roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		if err := walk(io, root, "", seen, &out); err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

func walk(io FileIO, root, rel string, seen map[string]bool, out *[]string) error {
	full := joinPath(root, rel)
	if !io.IsDirectory(full) {
		if !seen[rel] {
			seen[rel] = true
			*out = append(*out, rel)
		}
		return nil
	}
	children, err := io.ListChildren(full)
	if err != nil {
		return errors.Wrapf(mergeerr.ErrInputInaccessible, "list %s: %v", full, err)
	}
	for _, c := range children {
		if err := walk(io, root, joinPath(rel, c), seen, out); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "/" + b
}

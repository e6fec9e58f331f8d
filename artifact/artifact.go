// Package artifact implements the generic, revision-tagged tree model:
// the universal node the matcher and merge driver operate on,
// independent of any source language. A parser collaborator is
// responsible for producing trees of Artifact nodes; this package only
// defines the contract.
package artifact

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// ErrInvariantViolation reports a data-model invariant violation. It is
// always fatal and never caught for recovery.
var ErrInvariantViolation = errors.New("artifact: invariant violation")

// Artifact is the universal tree node. Each Artifact exclusively owns
// its child sequence; the parent back-reference and the matches map are
// both non-owning.
type Artifact struct {
	Revision Revision
	Identity ID
	Kind     Kind

	// Payload holds leaf text content; Attributes holds structural
	// key/value data for inner nodes.
	Payload    string
	Attributes map[string]string

	Conflict     bool
	ConflictKind ConflictKind
	Choice       bool
	Added        bool
	Merged       bool

	children []*Artifact
	parent   *Artifact

	// matches is a Revision -> *Artifact lookup, non-owning. Backed by a
	// linkedhashmap rather than a bare Go map so that iteration order is
	// deterministic across runs.
	matches *linkedhashmap.Map

	hash      [32]byte
	hashValid bool
}

// New constructs a leaf-or-inner Artifact with no children yet.
func New(revision Revision, identity ID, kind Kind) *Artifact {
	return &Artifact{
		Revision: revision,
		Identity: identity,
		Kind:     kind,
		matches:  linkedhashmap.New(),
	}
}

// NewLeaf constructs a text-payload leaf.
func NewLeaf(revision Revision, identity ID, kind Kind, payload string) *Artifact {
	a := New(revision, identity, kind)
	a.Payload = payload
	return a
}

// Children returns the ordered child sequence. Callers must not mutate
// the returned slice; use AddChild.
func (a *Artifact) Children() []*Artifact {
	return a.children
}

// AddChild appends child to a's child sequence and fixes up the parent
// back-reference, keeping the invariant that a child's parent pointer
// equals its containing artifact.
func (a *Artifact) AddChild(child *Artifact) {
	child.parent = a
	a.children = append(a.children, child)
	a.hashValid = false
}

// Parent returns the (possibly nil) owning artifact.
func (a *Artifact) Parent() *Artifact {
	return a.parent
}

// IsLeaf reports whether a has no children.
func (a *Artifact) IsLeaf() bool {
	return len(a.children) == 0
}

// Hash returns a BLAKE3 structural hash of the subtree rooted at a:
// kind, payload and the ordered sequence of children hashes. Identity
// and matches never participate, so two structurally-equal subtrees
// from different revisions hash identically — the cheap equality
// prefilter the matchers rely on.
func (a *Artifact) Hash() [32]byte {
	if a.hashValid {
		return a.hash
	}
	h := blake3.New()
	_, _ = h.Write([]byte(a.Kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(a.Payload))
	_, _ = h.Write([]byte{0})
	for _, c := range a.children {
		ch := c.Hash()
		_, _ = h.Write(ch[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	a.hash = out
	a.hashValid = true
	return out
}

// EqualsStructurally compares kind, payload and ordered children,
// ignoring identity, revision and matches.
func (a *Artifact) EqualsStructurally(b *Artifact) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Payload != b.Payload {
		return false
	}
	if len(a.children) != len(b.children) {
		return false
	}
	if a.Hash() != b.Hash() {
		return false
	}
	for i := range a.children {
		if !a.children[i].EqualsStructurally(b.children[i]) {
			return false
		}
	}
	return true
}

// SetMatch records a symmetric correspondence between a and other: if
// a.matches[other.Revision] is other, then other.matches[a.Revision]
// is a.
func (a *Artifact) SetMatch(other *Artifact) {
	if a == nil || other == nil {
		return
	}
	a.matches.Put(other.Revision, other)
	other.matches.Put(a.Revision, a)
}

// Match returns the artifact a is matched to in revision, if any.
func (a *Artifact) Match(revision Revision) (*Artifact, bool) {
	v, ok := a.matches.Get(revision)
	if !ok {
		return nil, false
	}
	return v.(*Artifact), true
}

// ClearMatches drops every recorded correspondence for a (but not the
// symmetric counterpart's entry — callers that need the inverse cleared
// too must do it explicitly; matches are non-owning cross-references).
func (a *Artifact) ClearMatches() {
	a.matches.Clear()
}

// CloneDeep mints a fresh subtree in targetRevision: every node gets a
// fresh identity and an empty matches map (matches are never cloned).
// Parent back-references are rebuilt for the clone; payload, attributes
// and flags are copied.
func (a *Artifact) CloneDeep(targetRevision Revision) *Artifact {
	clone := &Artifact{
		Revision:     targetRevision,
		Identity:     ID(uuid.NewString()),
		Kind:         a.Kind,
		Payload:      a.Payload,
		Conflict:     a.Conflict,
		ConflictKind: a.ConflictKind,
		Choice:       a.Choice,
		Added:        a.Added,
		Merged:       a.Merged,
		matches:      linkedhashmap.New(),
	}
	if a.Attributes != nil {
		clone.Attributes = make(map[string]string, len(a.Attributes))
		for k, v := range a.Attributes {
			clone.Attributes[k] = v
		}
	}
	for _, c := range a.children {
		clone.AddChild(c.CloneDeep(targetRevision))
	}
	return clone
}

// CheckInvariants validates the child/parent back-reference invariant
// recursively. It is meant for tests and assertions, not the merge hot
// path.
func (a *Artifact) CheckInvariants() error {
	for _, c := range a.children {
		if c.parent != a {
			return errors.Wrapf(ErrInvariantViolation, "child %s of %s has parent %v", c.Identity, a.Identity, c.parent)
		}
		if err := c.CheckInvariants(); err != nil {
			return err
		}
	}
	return nil
}

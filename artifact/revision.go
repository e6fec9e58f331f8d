package artifact

// Revision names a version of an artifact tree. LEFT/BASE/RIGHT/MERGE are
// the ordinary 3-way names; n-way scenarios carry whatever labels their
// caller gives them (e.g. "v1", "v2", ...). No labels are minted
// automatically: every revision of a scenario is named by its caller.
type Revision string

const (
	Left  Revision = "LEFT"
	Base  Revision = "BASE"
	Right Revision = "RIGHT"
	Merge Revision = "MERGE"
)

// ID is a stable identity, unique within its Revision. Identities never
// carry cross-revision meaning: two artifacts from different revisions
// may share an ID by coincidence and that implies nothing.
type ID string

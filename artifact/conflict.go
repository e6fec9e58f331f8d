package artifact

// ConflictKind classifies why a conflict artifact exists, one value per
// way the merge driver can fail to reconcile the two sides.
type ConflictKind int

const (
	// ConflictContent: both sides changed a matched node incompatibly
	// (rule 6), or a leaf's line-level merge produced a conflict block.
	ConflictContent ConflictKind = iota
	// ConflictDeleteModify: one side deleted, the other changed (rule 4).
	ConflictDeleteModify
	// ConflictAddAdd: both sides independently added non-equal subtrees
	// with no BASE correspondent (rule 9).
	ConflictAddAdd
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictDeleteModify:
		return "delete/modify"
	case ConflictAddAdd:
		return "add/add"
	default:
		return "content"
	}
}

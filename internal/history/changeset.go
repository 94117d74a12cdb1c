package history

// EntityIDs lists affected graph node and edge identifiers.
type EntityIDs struct {
	Nodes []int64 `json:"nodes"`
	Edges []int64 `json:"edges"`
}

// ChangeSet reports what a commit switch did to the live graph. Only the
// deletions fields are populated: replayed transitions report the node
// IDs their delete operations removed. Additions and modifications are
// structurally present but always empty; callers must not read them as
// a statement about the graph.
type ChangeSet struct {
	Deletions     EntityIDs `json:"deletions"`
	Additions     EntityIDs `json:"additions"`
	Modifications EntityIDs `json:"modifications"`
}

// NewChangeSet returns an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{}
}

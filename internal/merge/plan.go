package merge

// Action is one kind of reconciliation outcome.
type Action int

const (
	// ActionCreate marks a node produced by this generation with no
	// backup counterpart.
	ActionCreate Action = iota
	// ActionUpdate marks a node paired with a backup node and merged in
	// place.
	ActionUpdate
	// ActionPreserve marks a backup-only node reattached to the fresh
	// tree.
	ActionPreserve
	// ActionRemove marks a backup-only node that could not be carried
	// forward.
	ActionRemove
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionPreserve:
		return "preserve"
	case ActionRemove:
		return "remove"
	}
	return "unknown"
}

// PlanEntry records the outcome for one node.
type PlanEntry struct {
	Action Action `json:"action"`
	Path   string `json:"path"`
	Name   string `json:"name"`
}

// Plan is the reconciliation plan produced by a merge: what was created,
// updated in place, preserved from the backup, or dropped.
type Plan struct {
	Entries []PlanEntry `json:"entries"`
}

// Count returns the number of entries with the given action.
func (p *Plan) Count(action Action) int {
	n := 0
	for _, e := range p.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

package declarative

// Operation is what Apply did with one resource.
type Operation int

const (
	OpSkip Operation = iota
	OpCreate
	OpUpdate
)

func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	default:
		return "skip"
	}
}

// Action records one resource handled by Apply.
type Action struct {
	Operation    Operation
	ResourceKind ResourceKind
	ResourceName string // fixture name, e.g. "alice" or "crew/reviewers"
	Detail       string
}

// Result is the ordered list of actions Apply took.
type Result struct {
	Actions []Action
}

func (r *Result) add(op Operation, kind ResourceKind, name, detail string) {
	r.Actions = append(r.Actions, Action{Operation: op, ResourceKind: kind, ResourceName: name, Detail: detail})
}

// Summary returns counts of creates, updates and skips.
func (r *Result) Summary() Summary {
	var s Summary
	for _, a := range r.Actions {
		switch a.Operation {
		case OpCreate:
			s.Creates++
		case OpUpdate:
			s.Updates++
		default:
			s.Skips++
		}
	}
	return s
}

// HasChanges reports whether Apply wrote anything.
func (r *Result) HasChanges() bool {
	s := r.Summary()
	return s.Creates+s.Updates > 0
}

// Summary holds counts of applied operations.
type Summary struct {
	Creates int `json:"creates"`
	Updates int `json:"updates"`
	Skips   int `json:"skips"`
}

package complaint

// Status is a complaint lifecycle state.
type Status string

const (
	StatusNew        Status = "new"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Statuses lists every state in lifecycle order.
var Statuses = []Status{StatusNew, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed}

// transitions is the forward-only lifecycle. closed is terminal.
var transitions = map[Status][]Status{
	StatusNew:        {StatusAssigned},
	StatusAssigned:   {StatusInProgress},
	StatusInProgress: {StatusResolved},
	StatusResolved:   {StatusClosed},
	StatusClosed:     {},
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// CanTransition reports whether a complaint in from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether s still counts as an open complaint.
func (s Status) IsOpen() bool {
	return s != StatusClosed
}

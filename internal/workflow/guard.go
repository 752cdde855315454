package workflow

import (
	"fmt"
	"strings"
)

// Statuses returns the closed status set of kind in lifecycle order.
func Statuses(kind Kind) []Status {
	t, ok := tables[kind]
	if !ok {
		return nil
	}
	return append([]Status(nil), t.statuses...)
}

// ParseStatus maps a raw backend value onto the kind's closed set. Matching
// ignores case and surrounding whitespace, and treats '_' and '-' as spaces.
func ParseStatus(kind Kind, raw string) (Status, error) {
	t, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	norm := normaliseStatus(raw)
	for _, s := range t.statuses {
		if normaliseStatus(string(s)) == norm {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q for %s", ErrUnknownStatus, raw, kind)
}

func normaliseStatus(raw string) string {
	r := strings.NewReplacer("_", " ", "-", " ")
	return strings.Join(strings.Fields(strings.ToLower(r.Replace(raw))), " ")
}

// AllowedActions returns the actions offered in status. The result is never
// nil; terminal and unknown statuses yield an empty slice.
func AllowedActions(kind Kind, status Status) []Action {
	edges := tables[kind].edges[status]
	actions := make([]Action, 0, len(edges))
	for _, e := range edges {
		actions = append(actions, e.action)
	}
	return actions
}

// IsTerminal reports whether status has no outgoing actions.
func IsTerminal(kind Kind, status Status) bool {
	return len(tables[kind].edges[status]) == 0
}

// Apply returns the status reached by taking action from status.
func Apply(kind Kind, status Status, action Action) (Status, error) {
	t, ok := tables[kind]
	if !ok {
		return "", &TransitionError{Kind: kind, Status: status, Action: action, Err: ErrUnknownKind}
	}
	for _, e := range t.edges[status] {
		if e.action == action {
			return e.next, nil
		}
	}
	return "", &TransitionError{Kind: kind, Status: status, Action: action, Err: ErrInvalidTransition}
}

// Decision is the outcome of a guard evaluation.
type Decision struct {
	Allowed bool
	Next    Status
	Err     error
}

// Guard evaluates (status, action, role) against the transition table and
// the role matrix.
func Guard(kind Kind, status Status, action Action, role Role) Decision {
	next, err := Apply(kind, status, action)
	if err != nil {
		return Decision{Err: err}
	}
	if !RoleMay(role, action) {
		return Decision{Err: &TransitionError{Kind: kind, Status: status, Action: action, Err: ErrForbiddenAction}}
	}
	return Decision{Allowed: true, Next: next}
}

// Check runs Guard and enforces that disapprovals, rejections and
// cancellations carry a reason.
func Check(kind Kind, status Status, action Action, role Role, reason string) (Status, error) {
	d := Guard(kind, status, action, role)
	if !d.Allowed {
		return "", d.Err
	}
	if action.RequiresReason() && strings.TrimSpace(reason) == "" {
		return "", &TransitionError{Kind: kind, Status: status, Action: action, Err: ErrReasonRequired}
	}
	return d.Next, nil
}

// ActionsFor selects the controls to display for role in status.
func ActionsFor(kind Kind, status Status, role Role) []Action {
	all := AllowedActions(kind, status)
	out := make([]Action, 0, len(all))
	for _, a := range all {
		if RoleMay(role, a) {
			out = append(out, a)
		}
	}
	return out
}

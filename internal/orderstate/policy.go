package orderstate

import "fmt"

// Policy names accepted by PolicyFor.
const (
	PolicyLenient   = "lenient"
	PolicyMonotonic = "monotonic"
)

// Policy is a transition table keyed by (current, requested) status.
type Policy struct {
	name    string
	allowed map[Status]map[Status]bool
}

// Lenient allows every status to be set from every other status.
func Lenient() Policy {
	table := make(map[Status]map[Status]bool, len(All))
	for _, from := range All {
		table[from] = make(map[Status]bool, len(All))
		for _, to := range All {
			table[from][to] = true
		}
	}
	return Policy{name: PolicyLenient, allowed: table}
}

// Monotonic only allows one forward step at a time, cancellation from any
// non-terminal state, and same-state updates.
func Monotonic() Policy {
	forward := []Status{Pending, Accepted, Preparing, Served, Completed}
	table := make(map[Status]map[Status]bool, len(All))
	for _, s := range All {
		table[s] = map[Status]bool{s: true}
	}
	for i := 0; i+1 < len(forward); i++ {
		table[forward[i]][forward[i+1]] = true
	}
	for _, s := range All {
		if !s.Terminal() {
			table[s][Cancelled] = true
		}
	}
	return Policy{name: PolicyMonotonic, allowed: table}
}

// PolicyFor resolves a configured policy name.
func PolicyFor(name string) (Policy, error) {
	switch name {
	case "", PolicyLenient:
		return Lenient(), nil
	case PolicyMonotonic:
		return Monotonic(), nil
	default:
		return Policy{}, fmt.Errorf("unknown status policy %q", name)
	}
}

// Name returns the policy identifier.
func (p Policy) Name() string { return p.name }

// Allows reports whether moving from -> to is permitted.
func (p Policy) Allows(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return p.allowed[from][to]
}

// Targets lists the statuses reachable from the given status, in lifecycle order.
func (p Policy) Targets(from Status) []Status {
	out := make([]Status, 0, len(All))
	for _, to := range All {
		if p.Allows(from, to) {
			out = append(out, to)
		}
	}
	return out
}

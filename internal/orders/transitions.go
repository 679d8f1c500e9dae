package orders

import (
	"fmt"
	"strings"

	"github.com/jazmin7552/p2/internal/statuses"
)

// Transition policy names accepted by ParsePolicy.
const (
	PolicyUnrestricted = "unrestricted"
	PolicyStrict       = "strict"
)

// TransitionPolicy decides whether an order may move between two statuses.
type TransitionPolicy interface {
	Allow(from, to statuses.Status) error
}

// ParsePolicy maps a configuration value to a policy. Empty means unrestricted.
func ParsePolicy(name string) (TransitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyUnrestricted:
		return Unrestricted{}, nil
	case PolicyStrict:
		return Strict{}, nil
	}
	return nil, fmt.Errorf("orders: unknown transition policy %q", name)
}

// Unrestricted lets an order take any existing status.
type Unrestricted struct{}

func (Unrestricted) Allow(_, _ statuses.Status) error { return nil }

// Strict walks orders forward through the kitchen flow. CANCELLED is reachable
// from every non-terminal status; PAID and CANCELLED are terminal.
type Strict struct{}

var forward = map[string]string{
	statuses.Pending:    statuses.InProgress,
	statuses.InProgress: statuses.Ready,
	statuses.Ready:      statuses.Served,
	statuses.Served:     statuses.Paid,
}

func (Strict) Allow(from, to statuses.Status) error {
	src, dst := strings.ToUpper(from.Name), strings.ToUpper(to.Name)
	if from.ID == to.ID {
		return nil
	}
	if IsTerminal(src) {
		return fmt.Errorf("%w: %s is final", ErrInvalidTransition, src)
	}
	if dst == statuses.Cancelled {
		if _, ok := forward[src]; ok {
			return nil
		}
	}
	if next, ok := forward[src]; ok && next == dst {
		return nil
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, src, dst)
}

// IsTerminal reports whether no further change is expected for an order in status name.
func IsTerminal(name string) bool {
	name = strings.ToUpper(name)
	return name == statuses.Paid || name == statuses.Cancelled
}

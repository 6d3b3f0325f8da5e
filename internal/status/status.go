// Package status is the single owner of the order lifecycle: the
// canonical status vocabulary, the legal transitions between statuses and
// which role may trigger each one. Views never compare status strings
// themselves.
package status

import (
	"errors"
	"fmt"
)

type Status string

const (
	Pending    Status = "pending"
	InProgress Status = "in_progress"
	Delivered  Status = "delivered"
	Payment    Status = "payment"
	Completed  Status = "completed"
	Cancelled  Status = "cancelled"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrUnknownRole       = errors.New("unknown role")
	ErrAlreadyPassed     = errors.New("status already passed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRoleNotAllowed    = errors.New("role may not perform this transition")
)

// aliases maps the status tokens older clients still send onto the
// canonical vocabulary. They are normalized on parse and never stored.
var aliases = map[string]Status{
	"confirmed": InProgress,
	"ready":     Delivered,
}

// rank orders the forward path; cancelled sits outside it.
var rank = map[Status]int{
	Pending:    0,
	InProgress: 1,
	Delivered:  2,
	Payment:    3,
	Completed:  4,
}

var transitions = map[Status][]Status{
	Pending:    {InProgress, Cancelled},
	InProgress: {Delivered, Cancelled},
	Delivered:  {Payment, Cancelled},
	Payment:    {Completed},
}

func Parse(raw string) (Status, error) {
	if canonical, ok := aliases[raw]; ok {
		return canonical, nil
	}
	s := Status(raw)
	switch s {
	case Pending, InProgress, Delivered, Payment, Completed, Cancelled:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// Next returns the statuses reachable from s in one transition.
func Next(s Status) []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// Terminal reports whether no further transition exists from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// BillingReady reports whether a bill may be reconciled from an order in
// this status.
func (s Status) BillingReady() bool {
	return s == Delivered || s == Payment
}

// Result distinguishes a real transition from a recognized repeat.
type Result int

const (
	// Advance means the transition is legal and must be applied.
	Advance Result = iota
	// Noop means the order is already in the target status; the request
	// is accepted without side effects.
	Noop
)

// Validate checks a requested transition. Re-requesting the current
// status is a no-op; requesting a status the order has moved past is
// rejected, as is any edge not in the transition table. No partial state
// is ever applied on rejection.
func Validate(current, target Status) (Result, error) {
	if current == target {
		return Noop, nil
	}
	for _, next := range transitions[current] {
		if next == target {
			return Advance, nil
		}
	}
	if target != Cancelled && rank[target] < rank[current] {
		return 0, fmt.Errorf("%w: %s before %s", ErrAlreadyPassed, target, current)
	}
	return 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
}

// CanInvoke reports whether the role is permitted to trigger the
// transition. Admin may trigger anything a staff member may.
func CanInvoke(role Role, from, to Status) bool {
	if role == RoleAdmin {
		role = RoleStaff
	}

	switch {
	case from == Pending && to == InProgress:
		return role == RoleStaff
	case from == InProgress && to == Delivered:
		return true // staff marks prepared, or customer self-marks delivered
	case from == Delivered && to == Payment:
		return role == RoleCustomer
	case from == Payment && to == Completed:
		return true // customer self-confirms, or staff finalizes via billing
	case to == Cancelled:
		if role == RoleStaff {
			return true
		}
		return from == Pending
	}
	return false
}

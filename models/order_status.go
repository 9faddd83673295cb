package models

import (
	"errors"
	"fmt"
	"strings"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusCompleted,
	StatusCancelled,
}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrUnknownAction     = errors.New("unknown order action")
)

// TransitionError is returned when a status change is not allowed from the
// order's current status.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	if e.From.IsTerminal() {
		return fmt.Sprintf("invalid transition: %s is terminal, cannot move to %s", e.From, e.To)
	}
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

func (s OrderStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition enforces the adjacency table. Setting the current
// status again is rejected like any other non-adjacent move.
func ValidateTransition(from, to OrderStatus) error {
	if !from.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// OrderAction is a dashboard affordance that moves an order forward.
type OrderAction string

const (
	ActionConfirm        OrderAction = "confirm"
	ActionCancel         OrderAction = "cancel"
	ActionStartPreparing OrderAction = "start_preparing"
	ActionMarkReady      OrderAction = "mark_ready"
	ActionComplete       OrderAction = "complete"
)

var actionTargets = map[OrderAction]OrderStatus{
	ActionConfirm:        StatusConfirmed,
	ActionCancel:         StatusCancelled,
	ActionStartPreparing: StatusPreparing,
	ActionMarkReady:      StatusReady,
	ActionComplete:       StatusCompleted,
}

var actionLabels = map[OrderAction]string{
	ActionConfirm:        "Confirm",
	ActionCancel:         "Cancel",
	ActionStartPreparing: "Start Preparing",
	ActionMarkReady:      "Mark Ready",
	ActionComplete:       "Complete",
}

// Default affordances per status. confirmed -> cancelled is legal but not
// offered here.
var defaultActions = map[OrderStatus][]OrderAction{
	StatusPending:   {ActionConfirm, ActionCancel},
	StatusConfirmed: {ActionStartPreparing},
	StatusPreparing: {ActionMarkReady},
	StatusReady:     {ActionComplete},
}

type ActionOption struct {
	Action OrderAction `json:"action"`
	Label  string      `json:"label"`
	Target OrderStatus `json:"target"`
}

func ParseOrderAction(s string) (OrderAction, error) {
	action := OrderAction(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := actionTargets[action]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return action, nil
}

func (a OrderAction) Target() (OrderStatus, bool) {
	s, ok := actionTargets[a]
	return s, ok
}

// ActionsFor returns the dashboard actions offered for an order in status s.
func ActionsFor(s OrderStatus) []ActionOption {
	actions := defaultActions[s]
	out := make([]ActionOption, 0, len(actions))
	for _, a := range actions {
		out = append(out, ActionOption{Action: a, Label: actionLabels[a], Target: actionTargets[a]})
	}
	return out
}

// ApplyAction resolves an action against the current status.
func ApplyAction(current OrderStatus, action OrderAction) (OrderStatus, error) {
	target, ok := action.Target()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err := ValidateTransition(current, target); err != nil {
		return "", err
	}
	return target, nil
}

package reporting

import "fmt"

// Status is a batch's position in the approval state machine.
type Status string

const (
	// StatusPendingValidation is set by the external batch generator;
	// the only way out is a validation pass.
	StatusPendingValidation Status = "pending_validation"
	StatusReadyForReview    Status = "ready_for_review"
	StatusBlocked           Status = "blocked"
	StatusApprovedForExport Status = "approved_for_export"
	StatusExported          Status = "exported"
)

// Action is one of the operator-invokable operations on a batch.
type Action string

const (
	ActionValidate   Action = "validate"
	ActionApprove    Action = "approve"
	ActionBlock      Action = "block"
	ActionExportCSV  Action = "export_csv"
	ActionExportJSON Action = "export_json"
)

// ParseAction maps a request action string onto the closed Action set.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionBlock, ActionExportCSV, ActionExportJSON:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrBadAction, s)
	}
}

// IsExport reports whether the action produces an artifact.
func (a Action) IsExport() bool {
	return a == ActionExportCSV || a == ActionExportJSON
}

type transition struct {
	from map[Status]bool
	to   Status
}

// transitions is the single authority for manual batch actions.
// Validate is absent on purpose: it is legal from every state and its
// outcome (ready_for_review or blocked) depends on the issue count,
// not on the current status.
var transitions = map[Action]transition{
	ActionApprove: {
		from: map[Status]bool{StatusReadyForReview: true},
		to:   StatusApprovedForExport,
	},
	ActionBlock: {
		from: map[Status]bool{
			StatusPendingValidation: true,
			StatusReadyForReview:    true,
			StatusBlocked:           true,
			StatusApprovedForExport: true,
			StatusExported:          true,
		},
		to: StatusBlocked,
	},
	ActionExportCSV: {
		from: map[Status]bool{StatusApprovedForExport: true, StatusExported: true},
		to:   StatusExported,
	},
	ActionExportJSON: {
		from: map[Status]bool{StatusApprovedForExport: true, StatusExported: true},
		to:   StatusExported,
	},
}

// Next resolves the target status for an action from the current one.
// It returns ErrStateTransition when the action is not legal from the
// current status.
func Next(current Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("%w: %q has no transition", ErrBadAction, action)
	}
	if !t.from[current] {
		return "", fmt.Errorf("%w: cannot %s a batch in status %q", ErrStateTransition, action, current)
	}
	return t.to, nil
}

package grid

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// Mutation actions reported by ActionError.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Targets of a mutation. The zero Target is a row.
const (
	TargetRow    = "row"
	TargetColumn = "column"
)

// ActionError reports a repository failure during a mutation. The local
// state is left as it was before the call.
type ActionError struct {
	Action string
	Target string
	Err    error
}

// Message is the user-facing text, e.g. "Failed to add row".
func (e *ActionError) Message() string {
	target := e.Target
	if target == "" {
		target = TargetRow
	}
	return fmt.Sprintf("Failed to %s %s", e.Action, target)
}

func (e *ActionError) Error() string {
	return e.Message() + ": " + e.Err.Error()
}

func (e *ActionError) Unwrap() error { return e.Err }

// DuplicateError is returned when a payload violates a duplicate policy.
// It wraps types.ErrDuplicateKey or types.ErrDuplicateRow.
type DuplicateError struct {
	Kind   error
	Labels []string
}

func (e *DuplicateError) Error() string {
	if e.Kind == types.ErrDuplicateRow {
		return "Duplicate row detected. Please adjust the values before saving."
	}
	if len(e.Labels) > 1 {
		return fmt.Sprintf("Combination of %s must be unique. Please update the values before saving.",
			strings.Join(e.Labels, ", "))
	}
	return fmt.Sprintf("%s must be unique. Please provide a different value before saving.",
		strings.Join(e.Labels, ""))
}

func (e *DuplicateError) Unwrap() error { return e.Kind }

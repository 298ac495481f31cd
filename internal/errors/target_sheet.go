package errors

import (
	stdErrors "errors"
	"fmt"
)

// TargetSheetError reports a mutation that could not be routed to a sheet:
// no override, no configured sheet and no embedded "sheet" field.
type TargetSheetError struct {
	Action string
}

func (e *TargetSheetError) Error() string {
	return fmt.Sprintf("Target sheet not specified for %s. Configure the client with a sheet name or pass one explicitly.", e.Action)
}

// NewTargetSheetError creates a TargetSheetError for the given action.
func NewTargetSheetError(action string) *TargetSheetError {
	return &TargetSheetError{Action: action}
}

// IsTargetSheetError checks if err is a TargetSheetError
func IsTargetSheetError(err error) bool {
	var targetErr *TargetSheetError
	return stdErrors.As(err, &targetErr)
}

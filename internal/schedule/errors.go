package schedule

import (
	"errors"
	"fmt"
)

var (
	ErrDoseNotFound     = errors.New("dose not found")
	ErrMedicineNotFound = errors.New("medicine not found")

	// ErrInvalidTransition is the parent of every transition guard failure;
	// errors.Is matches the concrete guards below against it.
	ErrInvalidTransition = errors.New("illegal dose status transition")

	// ErrAlreadyTaken guards a repeated markTaken without an undo in between.
	ErrAlreadyTaken = fmt.Errorf("%w: dose already marked as taken", ErrInvalidTransition)
	// ErrAlreadyPending guards an undo on an instance with nothing to undo.
	ErrAlreadyPending = fmt.Errorf("%w: dose is already pending", ErrInvalidTransition)
	// ErrTakenToMissed guards demoting a confirmed dose to missed.
	ErrTakenToMissed = fmt.Errorf("%w: cannot mark taken dose as missed", ErrInvalidTransition)
)

// InvalidDateError reports a date string that is not YYYY-MM-DD.
type InvalidDateError struct {
	Date string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", e.Date)
}

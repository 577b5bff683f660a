package match

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when two vectors of different lengths are compared.
// Normalization upstream makes this a caller contract violation.
var ErrLengthMismatch = errors.New("match: length mismatch")

// LengthMismatchError carries the lengths involved in a failed comparison.
type LengthMismatchError struct {
	Expected int
	Actual   int
	// CandidateID is set when the mismatch was found during a scan.
	CandidateID string
}

func (e *LengthMismatchError) Error() string {
	if e.CandidateID != "" {
		return fmt.Sprintf("match: length mismatch: query has %d values, candidate %q has %d",
			e.Expected, e.CandidateID, e.Actual)
	}
	return fmt.Sprintf("match: length mismatch: %d vs %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrLengthMismatch.
func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}

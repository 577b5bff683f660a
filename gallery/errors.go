package gallery

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record ID is not in the gallery.
	ErrNotFound = errors.New("gallery: record not found")

	// ErrInvalidRecord is returned when a record cannot be stored.
	ErrInvalidRecord = errors.New("gallery: invalid record")

	// ErrCorruptSnapshot is returned when a snapshot cannot be parsed.
	ErrCorruptSnapshot = errors.New("gallery: corrupt snapshot")

	// ErrChecksumMismatch is returned when the snapshot payload fails its CRC32C check.
	ErrChecksumMismatch = errors.New("gallery: checksum mismatch")

	// ErrNoSnapshot is returned by Store.Latest before the first Save.
	ErrNoSnapshot = errors.New("gallery: no snapshot committed")
)

// ChecksumError reports the expected and actual payload checksums.
type ChecksumError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("gallery: checksum mismatch: expected %08x, got %08x", e.Expected, e.Actual)
}

// Is reports whether target is ErrChecksumMismatch.
func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptSnapshot, fmt.Sprintf(format, args...))
}

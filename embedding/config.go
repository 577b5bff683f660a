package embedding

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultCanonicalLength is the number of values in a canonical palm embedding.
	DefaultCanonicalLength = 512
	// DefaultMinBytes is the smallest decoded payload the decoder accepts.
	DefaultMinBytes = 100
	// DefaultValidationSample is the prefix inspected for non-finite values.
	DefaultValidationSample = 100
	// DefaultMaxInvalid is the largest tolerated non-finite count in the sample.
	DefaultMaxInvalid = 10
)

// Policy selects how the Normalizer treats vectors that are not already canonical.
type Policy uint8

const (
	// PolicyStrict requires every shape to produce exactly CanonicalLength finite
	// values after dispatch. Decoded Base64 is reconciled by the decoder first;
	// direct numeric shapes are not.
	PolicyStrict Policy = iota
	// PolicyLenient applies the decoder's reconcile-and-tolerate rules to every
	// shape and replaces tolerated non-finite values with zero.
	PolicyLenient
)

func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyLenient:
		return "lenient"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// ParsePolicy parses the textual form produced by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "lenient":
		return PolicyLenient, nil
	default:
		return 0, fmt.Errorf("embedding: unknown policy %q", s)
	}
}

// Config holds the decoding and validation limits.
type Config struct {
	// CanonicalLength is the fixed vector length after normalization.
	CanonicalLength int
	// MinBytes is the minimum decoded byte count (after odd-byte trimming).
	MinBytes int
	// ValidationSample is the number of leading values checked for NaN/Inf.
	ValidationSample int
	// MaxInvalid is the largest non-finite count tolerated within the sample.
	MaxInvalid int
	// Policy controls direct-shape strictness.
	Policy Policy
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		CanonicalLength:  DefaultCanonicalLength,
		MinBytes:         DefaultMinBytes,
		ValidationSample: DefaultValidationSample,
		MaxInvalid:       DefaultMaxInvalid,
		Policy:           PolicyStrict,
	}
}

// Validate reports whether the limits are usable.
func (c Config) Validate() error {
	var errs []error
	if c.CanonicalLength <= 0 {
		errs = append(errs, fmt.Errorf("canonical length must be positive, got %d", c.CanonicalLength))
	}
	if c.MinBytes < 0 {
		errs = append(errs, fmt.Errorf("min bytes must not be negative, got %d", c.MinBytes))
	}
	if c.ValidationSample < 0 {
		errs = append(errs, fmt.Errorf("validation sample must not be negative, got %d", c.ValidationSample))
	}
	if c.MaxInvalid < 0 {
		errs = append(errs, fmt.Errorf("max invalid must not be negative, got %d", c.MaxInvalid))
	}
	if c.Policy > PolicyLenient {
		errs = append(errs, fmt.Errorf("unknown policy %v", c.Policy))
	}
	if len(errs) > 0 {
		return fmt.Errorf("embedding: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before any computation begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UpstreamUnavailable is returned when every chain-data source for a
// request failed. A partial failure degrades the profile instead.
type UpstreamUnavailable struct {
	Sources []string
}

func (e *UpstreamUnavailable) Error() string {
	return fmt.Sprintf("all upstream sources failed: %v", e.Sources)
}

// ComputationError signals an internal invariant violation, e.g. a
// negative weight sum reaching the aggregator. Always fatal for the
// request, never silently corrected.
type ComputationError struct {
	Op     string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation error in %s: %s", e.Op, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstreamUnavailable reports whether err is an UpstreamUnavailable.
func IsUpstreamUnavailable(err error) bool {
	var ue *UpstreamUnavailable
	return errors.As(err, &ue)
}

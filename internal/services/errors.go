package services

import (
	"errors"
	"fmt"
)

var (
	// ErrDonationNotFound is returned when no donation matches the given id.
	ErrDonationNotFound = errors.New("donation not found")

	// ErrInvalidDonationState is returned when a transition is attempted on a
	// donation whose method or status does not allow it.
	ErrInvalidDonationState = errors.New("donation is not in a confirmable state")

	// ErrNoEligibleDonations is returned when a receipt request matches no
	// completed, receipt-flagged donation.
	ErrNoEligibleDonations = errors.New("no eligible donations for receipt")

	// ErrNotConfigured is returned when a required credential (payment
	// gateway, admin password) is missing from the configuration.
	ErrNotConfigured = errors.New("service is not configured")

	// ErrUnauthorized is returned when an admin operation is attempted
	// without a valid session.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports user-correctable input problems. It is always
// raised before any write happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError reports a failure returned by an external collaborator
// (payment processor). Payment-critical paths surface it to the caller.
type UpstreamError struct {
	Service string
	Code    int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (code %d)", e.Service, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: upstream error (code %d)", e.Service, e.Code)
}

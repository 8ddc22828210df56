package contact

import (
	"errors"
	"fmt"
)

// ErrMethodNotAllowed is returned for any method other than POST.
var ErrMethodNotAllowed = errors.New("contact: method not allowed")

// ValidationKind distinguishes the two client-side rejections.
type ValidationKind int

const (
	// MissingFields means name, email or message was absent or empty.
	MissingFields ValidationKind = iota + 1
	// InvalidEmail means the trimmed email does not look like local@domain.tld.
	InvalidEmail
)

func (k ValidationKind) String() string {
	switch k {
	case MissingFields:
		return "missing_fields"
	case InvalidEmail:
		return "invalid_email"
	default:
		return "unknown"
	}
}

// ValidationError reports a submission rejected before any mail is attempted.
type ValidationError struct {
	Kind ValidationKind
}

func (e *ValidationError) Error() string {
	return "contact: validation failed: " + e.Kind.String()
}

// Is matches another ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

var (
	// ErrMissingFields matches validation errors of kind MissingFields.
	ErrMissingFields = &ValidationError{Kind: MissingFields}
	// ErrInvalidEmail matches validation errors of kind InvalidEmail.
	ErrInvalidEmail = &ValidationError{Kind: InvalidEmail}
)

// DeliveryError wraps a transport failure of the internal notification. The
// wrapped error is for logs only.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("contact: notification delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

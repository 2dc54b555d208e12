package normalizer

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedObjectType indicates the payload belongs to another platform object.
	ErrUnsupportedObjectType = errors.New("unsupported object type")

	// ErrMalformedPayload indicates the payload is not valid JSON or has an unexpected shape.
	ErrMalformedPayload = errors.New("malformed payload")
)

// NormalizationError is returned for payloads that cannot produce events.
// Callers log and drop them; retrying the same payload cannot succeed.
type NormalizationError struct {
	Object string // Object type found in the payload, if any
	Detail string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("normalize %q: %v: %s", e.Object, e.Err, e.Detail)
	}

	return fmt.Sprintf("normalize %q: %v", e.Object, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

func (e *NormalizationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsNormalizationError reports whether err came from payload normalization.
func IsNormalizationError(err error) bool {
	var normErr *NormalizationError

	return errors.As(err, &normErr)
}

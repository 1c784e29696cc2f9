package availability

import (
	"errors"
	"fmt"

	"staycal/internal/domain/shared/daterange"
)

var (
	ErrInvalidDate      = daterange.ErrInvalidDate
	ErrMalformedPayload = errors.New("availability: malformed payload from backend")
	ErrReadOnlyBackend  = errors.New("availability: backend does not accept writes")
	ErrNoBackend        = errors.New("availability: backend not configured")
	ErrNotLoaded        = errors.New("availability: calendar not loaded, refusing to overwrite backend")
)

// TransportError reports that the backend of record could not be reached or
// rejected the call.
type TransportError struct {
	Backend string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("availability: %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err came from the backend transport.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

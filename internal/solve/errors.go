package solve

import (
	"errors"
	"fmt"
)

// GenericMessage is shown when a failure carries no service-supplied text.
const GenericMessage = "an error occurred"

// ErrIncompleteGrid is returned without any network call when a cell is empty.
var ErrIncompleteGrid = errors.New("grid incomplete")

// ServiceError is an error reported by the solving service, or a reply that
// does not match the solution schema.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("solver: status %d", e.Status)
	}
	return fmt.Sprintf("solver: status %d: %s", e.Status, e.Message)
}

// TransportError is a failure to reach the service or read its reply.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "solver transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrIncompleteGrid) {
		return ErrIncompleteGrid.Error()
	}
	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return GenericMessage
}

package client

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned on any 401. The session layer
// watches for it through the auth-changed hook.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is a non-2xx response reduced to one message. Field names
// the serializer field the message came from, or "detail" for
// body-level errors.
type APIError struct {
	StatusCode int
	Field      string
	Message    string
}

func (e *APIError) Error() string {
	if e.Field != "" && e.Field != "detail" {
		return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Field, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// SchemaError is a 2xx response whose body does not satisfy the
// resource schema. The raw decode succeeded; a declared invariant
// did not hold.
type SchemaError struct {
	Operation string
	Err       error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: response failed schema validation: %v", e.Operation, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

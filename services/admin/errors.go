package admin

import (
	"errors"
	"fmt"
)

// Callable error codes.
const (
	CodeUnauthenticated  = "unauthenticated"
	CodeInvalidArgument  = "invalid-argument"
	CodeNotFound         = "not-found"
	CodePermissionDenied = "permission-denied"
	CodeInternal         = "internal"
)

// CallableError is returned by every admin and callable operation.
type CallableError struct {
	Code    string
	Message string
}

func (e *CallableError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...any) error {
	return &CallableError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsCallableError unwraps err, treating anything untyped as internal.
func AsCallableError(err error) *CallableError {
	var ce *CallableError
	if errors.As(err, &ce) {
		return ce
	}
	return &CallableError{Code: CodeInternal, Message: err.Error()}
}

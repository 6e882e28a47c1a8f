// Package errs contains the error taxonomy shared by services and the HTTP boundary.
package errs

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated: no, invalid or expired credential on a protected action.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden: authenticated caller lacks ownership or role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned by login for unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal error")
	ErrRewriteFailed      = errors.New("rewrite failed")
)

// ValidationError collects every violated field of one request.
type ValidationError struct {
	Fields map[string]string
}

// Add records msg for field. The first message per field wins.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Has reports whether field was flagged.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Empty reports whether no violation was recorded.
func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// OrNil returns e as an error only when it holds violations.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field ValidationError.
func Invalid(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// AsValidation unwraps a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

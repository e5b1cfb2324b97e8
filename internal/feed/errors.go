package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrFeedParse matches every failure to read a feed document.
	ErrFeedParse = errors.New("feed: cannot parse response")
	// ErrFieldNotFound is the cause when no element carries the requested name.
	ErrFieldNotFound = errors.New("feed: field not found")
	// ErrFieldParse is the cause when a field holds malformed text.
	ErrFieldParse = errors.New("feed: malformed field")
)

// FieldError names the feed field that could not be read. It matches
// ErrFeedParse as well as its cause.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("feed: field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFeedParse) hold for every field failure.
func (e *FieldError) Is(target error) bool { return target == ErrFeedParse }

func notFound(field string) error {
	return &FieldError{Field: field, Err: ErrFieldNotFound}
}

func malformed(field string, cause error) error {
	return &FieldError{Field: field, Err: fmt.Errorf("%w: %v", ErrFieldParse, cause)}
}

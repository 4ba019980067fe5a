package schema

import (
	"errors"
	"fmt"
)

// ErrUnknownEntity is returned when a root type is not declared.
var ErrUnknownEntity = errors.New("unknown entity")

// UnresolvedFieldError reports the first segment of a dotted path that does
// not resolve.
type UnresolvedFieldError struct {
	Path    string
	Segment string
}

func (e *UnresolvedFieldError) Error() string {
	if e.Segment == e.Path {
		return fmt.Sprintf("field %q is not declared", e.Path)
	}
	return fmt.Sprintf("field %q: segment %q is not declared", e.Path, e.Segment)
}

package model

import "fmt"

// MalformedExpressionError reports a structural problem in a filter document.
// Pointer locates the offending node or member.
type MalformedExpressionError struct {
	Pointer Pointer
	Reason  string
}

func (e *MalformedExpressionError) Error() string {
	if e.Pointer == "" {
		return "malformed expression: " + e.Reason
	}
	return fmt.Sprintf("malformed expression at %s: %s", e.Pointer, e.Reason)
}

// Package ctxkeys holds the context keys shared by the transport layers.
package ctxkeys

// Key is the type for all context keys in the application.
type Key string

const (
	KeyRequestID Key = "request_id"
	KeySubject   Key = "subject"
	KeyClaims    Key = "claims"
)

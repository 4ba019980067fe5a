// Package store runs translated predicates against stored entities.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

var (
	// ErrNoBackend is returned when no query backend is configured.
	ErrNoBackend = errors.New("no query backend configured")
	// ErrCanceled is returned when the caller cancels or times out a query.
	ErrCanceled = errors.New("operation canceled")
)

// MaxLimit caps the number of documents a single query returns.
const MaxLimit = 1000

// Document is one stored record as a JSON-like map.
type Document map[string]any

// GetID returns the document id, looking at "id" then "_id".
func (doc Document) GetID() string {
	for _, key := range []string{"id", "_id"} {
		if v, ok := doc[key]; ok {
			return fmt.Sprint(v)
		}
	}
	return ""
}

// Store finds documents of an entity matching a predicate.
type Store interface {
	// Find returns at most limit documents matching p. A nil p matches all.
	Find(ctx context.Context, entity *schema.Entity, p predicate.Predicate, limit int) ([]Document, error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// Open builds the store cfg selects. The none backend yields a store whose
// queries fail with ErrNoBackend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return LoadMemoryStore(cfg.Fixtures)
	case BackendMongo:
		return NewMongoStore(ctx, cfg.Mongo)
	case BackendNone, "":
		return noStore{}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// WrapError maps context cancellation to ErrCanceled.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return ErrCanceled
	}
	return err
}

// IsCanceled reports whether err stems from context cancellation or an
// expired deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrCanceled)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

type noStore struct{}

// Find always fails with ErrNoBackend.
func (noStore) Find(context.Context, *schema.Entity, predicate.Predicate, int) ([]Document, error) {
	return nil, ErrNoBackend
}

// Close is a no-op.
func (noStore) Close(context.Context) error { return nil }

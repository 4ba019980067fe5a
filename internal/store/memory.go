package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/internal/predicate/cel"
	"github.com/syntrixbase/exprcheck/pkg/schema"
	"gopkg.in/yaml.v3"
)

// MemoryStore holds documents in memory, keyed by entity name, and matches
// them with CEL programs compiled from predicates.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string][]Document
	compiler *cel.Compiler
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() (*MemoryStore, error) {
	compiler, err := cel.NewCompiler()
	if err != nil {
		return nil, err
	}
	return &MemoryStore{docs: make(map[string][]Document), compiler: compiler}, nil
}

// LoadMemoryStore creates a store from a YAML fixtures file mapping entity
// names to document lists.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	s, err := NewMemoryStore()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	var fixtures map[string][]Document
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}
	for entity, docs := range fixtures {
		s.Insert(entity, docs...)
	}

	slog.Info("Loaded fixtures", "path", path, "entities", len(fixtures))
	return s, nil
}

// Insert appends documents to an entity.
func (s *MemoryStore) Insert(entity string, docs ...Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[entity] = append(s.docs[entity], docs...)
}

// Find evaluates p against every document of the entity and returns up to limit matches.
func (s *MemoryStore) Find(ctx context.Context, entity *schema.Entity, p predicate.Predicate, limit int) ([]Document, error) {
	prg, err := s.compiler.Compile(p)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	s.mu.RLock()
	docs := s.docs[entity.Name]
	s.mu.RUnlock()

	out := make([]Document, 0)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, WrapError(err)
		}

		ok, err := cel.Evaluate(prg, doc)
		if err != nil {
			// Documents whose shape does not fit the predicate never match.
			slog.Debug("Skipping document", "entity", entity.Name, "id", doc.GetID(), "error", err)
			continue
		}
		if ok {
			out = append(out, doc)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close(context.Context) error { return nil }

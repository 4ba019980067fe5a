package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider answers field lookups for the translator.
type Provider interface {
	// ResolveField walks a dotted path from rootType, following relation
	// fields, and returns the field the last segment names.
	ResolveField(rootType, dottedPath string) (Field, error)
	// DeclaredRelations returns the names of the relation fields of rootType.
	DeclaredRelations(rootType string) ([]string, error)
}

// Registry is an immutable set of entity descriptors. It is built once and
// may be shared by any number of goroutines.
type Registry struct {
	entities map[string]*Entity
}

var _ Provider = (*Registry)(nil)

type document struct {
	Entities []Entity `yaml:"entities"`
}

// NewRegistry validates the entities and indexes them by name.
func NewRegistry(entities ...Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}

	for i := range entities {
		e := entities[i]
		if e.Name == "" {
			return nil, fmt.Errorf("entity #%d: name is required", i)
		}
		if _, dup := r.entities[e.Name]; dup {
			return nil, fmt.Errorf("entity %q declared twice", e.Name)
		}

		e.Fields = append([]Field(nil), e.Fields...)
		e.index = make(map[string]int, len(e.Fields))
		for j := range e.Fields {
			f := &e.Fields[j]
			if f.Name == "" {
				return nil, fmt.Errorf("entity %q: field #%d: name is required", e.Name, j)
			}
			if strings.Contains(f.Name, ".") {
				return nil, fmt.Errorf("entity %q: field %q: name must not contain '.'", e.Name, f.Name)
			}
			if _, dup := e.index[f.Name]; dup {
				return nil, fmt.Errorf("entity %q: field %q declared twice", e.Name, f.Name)
			}
			t, ok := ParseFieldType(string(f.Type))
			if !ok {
				return nil, fmt.Errorf("entity %q: field %q: unknown type %q", e.Name, f.Name, f.Type)
			}
			f.Type = t
			if t == TypeRelation && f.Target == "" {
				return nil, fmt.Errorf("entity %q: relation %q needs a target", e.Name, f.Name)
			}
			if t != TypeRelation && f.Target != "" {
				return nil, fmt.Errorf("entity %q: field %q: target is only valid on relations", e.Name, f.Name)
			}
			e.index[f.Name] = j
		}
		r.entities[e.Name] = &e
	}

	for _, e := range r.entities {
		for _, f := range e.Fields {
			if f.IsRelation() {
				if _, ok := r.entities[f.Target]; !ok {
					return nil, fmt.Errorf("entity %q: relation %q targets undeclared entity %q", e.Name, f.Name, f.Target)
				}
			}
		}
	}

	return r, nil
}

// Parse decodes a YAML schema document of the form
//
//	entities:
//	  - name: person
//	    fields:
//	      - {name: age, type: integer}
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return NewRegistry(doc.Entities...)
}

// LoadFile reads and parses a YAML schema file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Entity returns the descriptor for name.
func (r *Registry) Entity(name string) (*Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	return e, nil
}

// Entities returns all descriptors sorted by name.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted entity names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveField walks a dotted path from rootType through relations and returns the final field.
func (r *Registry) ResolveField(rootType, dottedPath string) (Field, error) {
	entity, err := r.Entity(rootType)
	if err != nil {
		return Field{}, err
	}

	segments := strings.Split(dottedPath, ".")
	for i, seg := range segments {
		field, ok := entity.Field(seg)
		if !ok {
			return Field{}, &UnresolvedFieldError{Path: dottedPath, Segment: seg}
		}
		if i == len(segments)-1 {
			return field, nil
		}
		if !field.IsRelation() {
			// Scalars have no members to navigate into.
			return Field{}, &UnresolvedFieldError{Path: dottedPath, Segment: segments[i+1]}
		}
		entity = r.entities[field.Target]
	}

	return Field{}, &UnresolvedFieldError{Path: dottedPath, Segment: dottedPath}
}

// DeclaredRelations lists the relation fields of rootType in declaration order.
func (r *Registry) DeclaredRelations(rootType string) ([]string, error) {
	entity, err := r.Entity(rootType)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range entity.Fields {
		if f.IsRelation() {
			out = append(out, f.Name)
		}
	}
	return out, nil
}

package schema

import "strings"

// FieldType is the declared value type of an entity field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInteger   FieldType = "integer"
	TypeFloat     FieldType = "float"
	TypeBoolean   FieldType = "boolean"
	TypeTimestamp FieldType = "timestamp" // RFC 3339
	TypeUUID      FieldType = "uuid"
	TypeJSON      FieldType = "json" // opaque document
	// TypeRelation marks a field that navigates to another entity. Target
	// names the related entity.
	TypeRelation FieldType = "relation"
)

var fieldTypeAliases = map[string]FieldType{
	"text":     TypeString,
	"int":      TypeInteger,
	"long":     TypeInteger,
	"number":   TypeFloat,
	"double":   TypeFloat,
	"bool":     TypeBoolean,
	"datetime": TypeTimestamp,
	"date":     TypeTimestamp,
	"object":   TypeJSON,
}

// ParseFieldType resolves a declared type name, ignoring case.
func ParseFieldType(name string) (FieldType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch t := FieldType(name); t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeTimestamp, TypeUUID, TypeJSON, TypeRelation:
		return t, true
	}
	t, ok := fieldTypeAliases[name]
	return t, ok
}

// Field describes one attribute of an entity.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Type        FieldType `yaml:"type" json:"type"`
	Target      string    `yaml:"target,omitempty" json:"target,omitempty"`
	Required    bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
}

// IsRelation reports whether the field navigates to another entity.
func (f Field) IsRelation() bool {
	return f.Type == TypeRelation
}

// Entity describes a record type: its fields and where it is stored.
type Entity struct {
	Name        string  `yaml:"name" json:"name"`
	Collection  string  `yaml:"collection,omitempty" json:"collection,omitempty"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []Field `yaml:"fields" json:"fields"`

	index map[string]int
}

// Field looks up a declared field by exact name.
func (e *Entity) Field(name string) (Field, bool) {
	i, ok := e.index[name]
	if !ok {
		return Field{}, false
	}
	return e.Fields[i], true
}

// StorageName returns the collection or table the entity is stored in.
func (e *Entity) StorageName() string {
	if e.Collection != "" {
		return e.Collection
	}
	return e.Name
}

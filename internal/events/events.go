// Package events publishes validation outcomes to a message stream.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/syntrixbase/exprcheck/internal/translator"
)

// Type is the outcome an event reports. It is also the subject suffix.
type Type string

const (
	TypeValidated Type = "validated"
	TypeRejected  Type = "rejected"
)

// Event describes one finished validation.
type Event struct {
	ID        string               `json:"id"`
	Type      Type                 `json:"type"`
	Entity    string               `json:"entity"`
	RequestID string               `json:"requestId,omitempty"`
	Fields    []string             `json:"fields,omitempty"`
	Problems  []translator.Problem `json:"problems,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewEvent stamps a new event with a random id and the current time.
func NewEvent(t Type, entity string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Entity:    entity,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers events.
type Publisher interface {
	// Publish sends the event. Implementations must be safe for concurrent use.
	Publish(ctx context.Context, evt Event) error

	// Close releases resources.
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }

package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

var baseEventType = reflect.TypeOf(shared.BaseDomainEvent{})

// EventSerializer converts domain events to and from their JSON payload.
// Deserialization needs the concrete Go type, so every event type that can
// appear in the outbox or arrive from a collaborator is registered up front.
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{types: make(map[string]reflect.Type)}
}

// Register maps eventType to the concrete type of prototype
func (s *EventSerializer) Register(eventType string, prototype shared.DomainEvent) {
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.Lock()
	s.types[eventType] = t
	s.mu.Unlock()
}

// Serialize encodes an event as JSON
func (s *EventSerializer) Serialize(evt shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", evt.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes data into a new instance of the type registered for
// eventType. Envelope fields the payload leaves out are filled in: a fresh
// event ID, the event type, the current time and schema version 1.
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.types[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
	}
	fillEnvelope(ptr.Elem(), eventType)

	evt, ok := ptr.Interface().(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("type registered for %s does not implement DomainEvent", eventType)
	}
	return evt, nil
}

func fillEnvelope(v reflect.Value, eventType string) {
	if v.Kind() != reflect.Struct {
		return
	}
	f := v.FieldByName(baseEventType.Name())
	if !f.IsValid() || f.Type() != baseEventType || !f.CanAddr() {
		return
	}
	base := f.Addr().Interface().(*shared.BaseDomainEvent)
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.Type == "" {
		base.Type = eventType
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if base.Version == 0 {
		base.Version = 1
	}
}

// IsRegistered reports whether eventType can be deserialized
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[eventType]
	return ok
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.types))
	for t := range s.types {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

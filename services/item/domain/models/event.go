package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType is the closed set of supply-chain event kinds.
type EventType string

const (
	EventLocationUpdate  EventType = "LOCATION_UPDATE"
	EventCustodianChange EventType = "CUSTODIAN_CHANGE"
	EventStatusUpdate    EventType = "STATUS_UPDATE"
)

// EventTypes lists every valid EventType in declaration order.
var EventTypes = []EventType{EventLocationUpdate, EventCustodianChange, EventStatusUpdate}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventLocationUpdate, EventCustodianChange, EventStatusUpdate:
		return true
	}
	return false
}

// ParseEventType converts s into an EventType or returns an error naming the allowed values.
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !t.Valid() {
		return "", fmt.Errorf("event type %q is not one of %v", s, EventTypes)
	}
	return t, nil
}

// Event is an immutable, timestamped record attached to one Item.
type Event struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	Type      EventType `json:"type"`
	Location  string    `json:"location,omitempty"`
	Custodian string    `json:"custodian,omitempty"`
	Status    string    `json:"status,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventDraft carries the caller-supplied fields of a new Event.
type EventDraft struct {
	Type      EventType
	Location  string
	Custodian string
	Status    string
	Notes     string
}

// NewEvent builds an Event for itemID with a generated ID and the given timestamp.
func NewEvent(itemID string, d EventDraft, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		Type:      d.Type,
		Location:  d.Location,
		Custodian: d.Custodian,
		Status:    d.Status,
		Notes:     d.Notes,
		Timestamp: now,
	}
}

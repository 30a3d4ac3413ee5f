package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is the core aggregate for this bounded context: a tracked object plus
// its append-only event history.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Events      []Event   `json:"events"`
}

// ItemDraft carries the caller-supplied fields of a new Item.
type ItemDraft struct {
	Name        string
	Description *string
	Color       *string
	Price       *float64
}

// OptionalField is a set of the Item fields that may be absent.
type OptionalField uint8

const (
	FieldDescription OptionalField = 1 << iota
	FieldColor
	FieldPrice
)

// Has reports whether f includes every field in other.
func (f OptionalField) Has(other OptionalField) bool {
	return f&other == other
}

// ItemPatch is a partial update. A nil field means "leave unchanged"; a
// field named in Clear is removed from the item. Clear wins over a value
// supplied for the same field.
// Identity fields (ID, CreatedAt) have no counterpart here and can never be patched.
type ItemPatch struct {
	Name        *string
	Description *string
	Color       *string
	Price       *float64
	Clear       OptionalField
}

// IsEmpty reports whether the patch carries no fields.
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Color == nil && p.Price == nil && p.Clear == 0
}

// NewItem constructs an Item from a draft with a generated ID and both
// timestamps set to now.
func NewItem(d ItemDraft, now time.Time) Item {
	return Item{
		ID:          uuid.NewString(),
		Name:        d.Name,
		Description: cloneString(d.Description),
		Color:       cloneString(d.Color),
		Price:       cloneFloat(d.Price),
		CreatedAt:   now,
		UpdatedAt:   now,
		Events:      []Event{},
	}
}

// Apply merges the provided patch fields over the item and stamps UpdatedAt.
func (i *Item) Apply(p ItemPatch, now time.Time) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Description != nil {
		i.Description = cloneString(p.Description)
	}
	if p.Color != nil {
		i.Color = cloneString(p.Color)
	}
	if p.Price != nil {
		i.Price = cloneFloat(p.Price)
	}
	if p.Clear.Has(FieldDescription) {
		i.Description = nil
	}
	if p.Clear.Has(FieldColor) {
		i.Color = nil
	}
	if p.Clear.Has(FieldPrice) {
		i.Price = nil
	}
	i.UpdatedAt = now
}

// AppendEvent adds e to the end of the history and stamps UpdatedAt.
// The events slice is reallocated so earlier copies of the item never observe the append.
func (i *Item) AppendEvent(e Event, now time.Time) {
	events := make([]Event, len(i.Events), len(i.Events)+1)
	copy(events, i.Events)
	i.Events = append(events, e)
	i.UpdatedAt = now
}

// LastEvent returns the most recent event, if any.
func (i Item) LastEvent() (Event, bool) {
	if len(i.Events) == 0 {
		return Event{}, false
	}
	return i.Events[len(i.Events)-1], true
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	out := i
	out.Description = cloneString(i.Description)
	out.Color = cloneString(i.Color)
	out.Price = cloneFloat(i.Price)
	out.Events = make([]Event, len(i.Events))
	copy(out.Events, i.Events)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

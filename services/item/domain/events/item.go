package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/supplytrack/services/item/domain/models"
)

// Topics published by the item service after a mutation has been persisted.
const (
	TopicItemCreated    = "item.created"
	TopicItemUpdated    = "item.updated"
	TopicItemEventAdded = "item.event_added"
)

// Topics lists every item topic; subscribers register against all of them.
var Topics = []string{TopicItemCreated, TopicItemUpdated, TopicItemEventAdded}

// SchemaVersion is bumped on breaking payload changes.
const SchemaVersion = 1

// ItemChangedEvent is the payload for every item topic. EventType and
// ItemEvent are set only for item.event_added. Item is the full state after
// the mutation, so consumers can refresh read models without a store lookup.
type ItemChangedEvent struct {
	EventID    uuid.UUID   `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int         `json:"version"`
	Topic      string      `json:"topic"`
	ItemID     string      `json:"item_id"`
	Name       string      `json:"name"`
	EventCount int         `json:"event_count"`
	EventType  string      `json:"event_type,omitempty"`
	ItemEvent  string      `json:"item_event_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	Item       models.Item `json:"item"`
}

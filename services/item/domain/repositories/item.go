package repositories

import (
	"context"

	"github.com/ghuser/supplytrack/services/item/domain/models"
)

// QueryOpts contains filter and pagination parameters for list queries.
type QueryOpts struct {
	Name   string // case-insensitive substring of the item name; empty matches all
	Limit  int    // Maximum number of records to return; 0 means no limit
	Offset int    // Number of records to skip
}

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
//
// Lookups report a missing item through the boolean result, never through
// the error; a non-nil error always means the mutation could not be persisted.
type ItemRepository interface {
	Create(ctx context.Context, draft models.ItemDraft) (models.Item, error)
	Get(id string) (models.Item, bool)

	// GetAll returns every item in insertion order.
	GetAll() []models.Item

	// Search returns items whose name contains query, in insertion order.
	Search(query string) []models.Item

	// Update merges patch over the stored item and persists the result.
	Update(ctx context.Context, id string, patch models.ItemPatch) (models.Item, bool, error)

	// AddEvent appends a new event to the item's history and persists the result.
	AddEvent(ctx context.Context, id string, draft models.EventDraft) (models.Item, bool, error)
}

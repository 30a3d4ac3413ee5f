package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ghuser/supplytrack/services/item/domain/models"
)

// Snapshot is the complete, immutable-by-convention state of the store:
// a mapping from item ID to Item that remembers insertion order.
//
// Mutating helpers return a new Snapshot and never touch the receiver, so a
// candidate state can be persisted before it replaces the live one.
type Snapshot struct {
	order []string
	items map[string]models.Item
}

// Len returns the number of items.
func (s Snapshot) Len() int {
	return len(s.order)
}

func (s Snapshot) get(id string) (models.Item, bool) {
	item, ok := s.items[id]
	return item, ok
}

// Items returns deep copies of every item in insertion order.
func (s Snapshot) Items() []models.Item {
	out := make([]models.Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out
}

func (s Snapshot) filter(keep func(models.Item) bool) []models.Item {
	out := make([]models.Item, 0)
	for _, id := range s.order {
		if item := s.items[id]; keep(item) {
			out = append(out, item.Clone())
		}
	}
	return out
}

// put returns a copy of s with item stored under item.ID. New IDs are
// appended to the order; existing ones keep their position.
func (s Snapshot) put(item models.Item) Snapshot {
	items := make(map[string]models.Item, len(s.items)+1)
	for k, v := range s.items {
		items[k] = v
	}
	order := s.order
	if _, exists := s.items[item.ID]; !exists {
		order = append(slices.Clip(s.order), item.ID)
	}
	items[item.ID] = item
	return Snapshot{order: order, items: items}
}

// MarshalJSON encodes the snapshot as a JSON object keyed by item ID with
// keys in insertion order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.items[id])
		if err != nil {
			return nil, fmt.Errorf("encode item %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keyed by item ID, keeping the
// document's key order as the insertion order.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	items := make(map[string]models.Item)
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, _ := tok.(string)
		var item models.Item
		if err := dec.Decode(&item); err != nil {
			return fmt.Errorf("decode item %q: %w", id, err)
		}
		if item.ID != id {
			return fmt.Errorf("key %q holds item with id %q", id, item.ID)
		}
		if _, dup := items[id]; dup {
			return fmt.Errorf("duplicate item id %q", id)
		}
		if item.Events == nil {
			item.Events = []models.Event{}
		}
		items[id] = item
		order = append(order, id)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	s.items, s.order = items, order
	return nil
}

// Encode renders the snapshot in its on-disk form: indented JSON, two spaces.
func Encode(s Snapshot) ([]byte, error) {
	if s.items == nil {
		s.items = map[string]models.Item{}
	}
	return json.MarshalIndent(s, "", "  ")
}

// Decode parses the on-disk form. Empty or whitespace-only input decodes to
// an empty snapshot.
func Decode(data []byte) (Snapshot, error) {
	if strings.TrimSpace(string(data)) == "" {
		return Snapshot{items: map[string]models.Item{}}, nil
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

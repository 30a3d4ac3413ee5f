// Package services contains stateless domain services for the item bounded context.
// These rules form the validation boundary in front of the store: the store
// itself assumes validated input and never rejects a draft.
package services

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	itemdomain "github.com/ghuser/supplytrack/services/item/domain"
	"github.com/ghuser/supplytrack/services/item/domain/models"
)

// ValidateName enforces business rules for ItemName beyond the structural
// constraints enforced by the ItemName constructor.
//
// Business rules:
//   - Must not be only whitespace characters
//   - No control characters (Unicode category Cc)
func ValidateName(name models.ItemName) error {
	s := name.String()

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("item name must not be only whitespace")
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("item name must not contain control characters")
		}
	}

	return nil
}

// ValidateItemDraft checks a create request. Errors wrap ErrInvalidItemName.
func ValidateItemDraft(d models.ItemDraft) error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	return validatePrice(d.Price)
}

// ValidateItemPatch checks only the fields present in the patch.
// Errors wrap ErrInvalidItemName.
func ValidateItemPatch(p models.ItemPatch) error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	return validatePrice(p.Price)
}

// ValidateEventDraft checks an addEvent request. Errors wrap ErrInvalidEvent.
func ValidateEventDraft(d models.EventDraft) error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: event type %q is not one of %v", itemdomain.ErrInvalidEvent, d.Type, models.EventTypes)
	}
	return nil
}

func validateName(s string) error {
	name, err := models.NewItemName(s)
	if err != nil {
		return fmt.Errorf("%w: %w", itemdomain.ErrInvalidItemName, err)
	}
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("%w: %w", itemdomain.ErrInvalidItemName, err)
	}
	return nil
}

func validatePrice(p *float64) error {
	if p != nil && (math.IsNaN(*p) || math.IsInf(*p, 0)) {
		return fmt.Errorf("%w: price must be a finite number", itemdomain.ErrInvalidItemName)
	}
	return nil
}

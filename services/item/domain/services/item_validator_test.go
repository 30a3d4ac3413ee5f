package services

import (
	"errors"
	"math"
	"testing"

	itemdomain "github.com/ghuser/supplytrack/services/item/domain"
	"github.com/ghuser/supplytrack/services/item/domain/models"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   models.ItemName
		wantErr bool
	}{
		{"valid name", "Widget", false},
		{"valid name with special chars", "Item-Name_123!@#", false},
		{"surrounding spaces are tolerated", " Widget ", false},
		{"only whitespace", "   ", true},
		{"tab character (control)", "Name\tName", true},
		{"newline character (control)", "Name\nName", true},
		{"null byte (control)", "Name\x00", true},
		{"DEL character", "Name\x7F", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateItemDraft(t *testing.T) {
	price := 100.0
	nan := math.NaN()

	t.Run("valid draft", func(t *testing.T) {
		if err := ValidateItemDraft(models.ItemDraft{Name: "Widget", Price: &price}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing name wraps ErrInvalidItemName", func(t *testing.T) {
		err := ValidateItemDraft(models.ItemDraft{})
		if !errors.Is(err, itemdomain.ErrInvalidItemName) {
			t.Fatalf("expected ErrInvalidItemName, got %v", err)
		}
	})

	t.Run("non-finite price rejected", func(t *testing.T) {
		if err := ValidateItemDraft(models.ItemDraft{Name: "Widget", Price: &nan}); err == nil {
			t.Fatal("expected error for NaN price")
		}
	})
}

func TestValidateItemPatch(t *testing.T) {
	empty := ""
	red := "red"

	if err := ValidateItemPatch(models.ItemPatch{}); err != nil {
		t.Fatalf("empty patch should be valid: %v", err)
	}
	if err := ValidateItemPatch(models.ItemPatch{Color: &red}); err != nil {
		t.Fatalf("color-only patch should be valid: %v", err)
	}
	if err := ValidateItemPatch(models.ItemPatch{Name: &empty}); !errors.Is(err, itemdomain.ErrInvalidItemName) {
		t.Fatalf("expected ErrInvalidItemName for empty name, got %v", err)
	}
}

func TestValidateEventDraft(t *testing.T) {
	for _, et := range models.EventTypes {
		if err := ValidateEventDraft(models.EventDraft{Type: et}); err != nil {
			t.Fatalf("unexpected error for %s: %v", et, err)
		}
	}
	err := ValidateEventDraft(models.EventDraft{Type: "TELEPORT"})
	if !errors.Is(err, itemdomain.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

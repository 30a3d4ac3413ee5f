package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrItemNotFound, "item not found"},
		{ErrEventNotFound, "event not found"},
		{ErrInvalidItemName, "invalid item name"},
		{ErrInvalidEvent, "invalid event"},
	}
	for _, tt := range tests {
		if tt.err == nil {
			t.Fatalf("sentinel for %q must not be nil", tt.want)
		}
		if tt.err.Error() != tt.want {
			t.Fatalf("unexpected message: %q", tt.err.Error())
		}
	}
}

func TestSentinelErrors_Distinct(t *testing.T) {
	if errors.Is(ErrItemNotFound, ErrEventNotFound) {
		t.Fatal("ErrItemNotFound must not match ErrEventNotFound")
	}
	if errors.Is(ErrInvalidItemName, ErrInvalidEvent) {
		t.Fatal("ErrInvalidItemName must not match ErrInvalidEvent")
	}
}

func TestSentinelErrors_WrappedIdentity(t *testing.T) {
	wrapped := fmt.Errorf("get item: %w", ErrItemNotFound)
	if !errors.Is(wrapped, ErrItemNotFound) {
		t.Fatal("errors.Is must match wrapped ErrItemNotFound")
	}

	wrapped2 := fmt.Errorf("%w: %w", ErrInvalidEvent, errors.New("unknown type"))
	if !errors.Is(wrapped2, ErrInvalidEvent) {
		t.Fatal("errors.Is must match double-wrapped ErrInvalidEvent")
	}
}

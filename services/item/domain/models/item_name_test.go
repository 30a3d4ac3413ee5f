package models

import (
	"strings"
	"testing"
)

func TestNewItemName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"single character", "a", false},
		{"normal name", "Widget", false},
		{"255 ascii characters", strings.Repeat("x", 255), false},
		{"255 multi-byte characters", strings.Repeat("é", 255), false},
		{"empty string", "", true},
		{"256 characters", strings.Repeat("x", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewItemName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewItemName(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && n.String() != tt.input {
				t.Fatalf("expected %q, got %q", tt.input, n.String())
			}
		})
	}
}

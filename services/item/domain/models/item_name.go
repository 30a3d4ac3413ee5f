package models

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ItemName is a validated item name: non-empty and at most 255 characters,
// counted in runes so multi-byte names get the same budget as ASCII ones.
type ItemName string

const maxItemNameRunes = 255

// NewItemName constructs a valid ItemName or returns an error if constraints are violated.
func NewItemName(s string) (ItemName, error) {
	switch n := utf8.RuneCountInString(s); {
	case n == 0:
		return "", errors.New("item name is required")
	case n > maxItemNameRunes:
		return "", fmt.Errorf("item name must not exceed %d characters (got %d)", maxItemNameRunes, n)
	}
	return ItemName(s), nil
}

func (n ItemName) String() string {
	return string(n)
}

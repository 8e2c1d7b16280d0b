package model

import (
	"strings"
	"time"
)

// MaxStoreNameLength caps preferred-store names on minimum records.
const MaxStoreNameLength = 50

// ItemMinimum is a user-configured restock threshold for one (item, type)
// pair, with an optional preferred store.
type ItemMinimum struct {
	ID        string    `json:"id"`
	ItemKey   string    `json:"item_key"`
	Type      string    `json:"type"`
	Quantity  float64   `json:"quantity"`
	Store     string    `json:"store"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CleanType normalizes an item type string for threshold records.
func CleanType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// CleanStoreName trims a store name and truncates it to MaxStoreNameLength.
func CleanStoreName(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxStoreNameLength {
		s = strings.TrimSpace(s[:MaxStoreNameLength])
	}
	return s
}

package model

import (
	"strings"
	"time"
)

// Item represents one catalog entry (a specific glass color in a specific
// form), identified by its natural key.
type Item struct {
	Key          string    `json:"key"`
	Manufacturer string    `json:"manufacturer"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	COE          string    `json:"coe,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ImageMime    string    `json:"image_mime,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Item types (glass forms).
const (
	ItemTypeRod   = "rod"
	ItemTypeSheet = "sheet"
	ItemTypeFrit  = "frit"
	ItemTypeTube  = "tube"
)

// NaturalKey derives the stable catalog key from manufacturer and SKU.
// Keys are uppercase "MFR-SKU" with internal whitespace stripped, so the
// same product scraped from different sources deduplicates to one row.
func NaturalKey(manufacturer, sku string) string {
	m := strings.ToUpper(strings.Join(strings.Fields(manufacturer), ""))
	s := strings.ToUpper(strings.Join(strings.Fields(sku), ""))
	return m + "-" + s
}

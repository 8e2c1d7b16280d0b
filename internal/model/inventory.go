package model

import "time"

// QuantityTolerance is the float tolerance for quantity comparisons.
// Quantities within this distance of each other are considered equal.
const QuantityTolerance = 1e-6

// InventoryRecord represents one owned lot of an item.
type InventoryRecord struct {
	ID            string    `json:"id"`
	ItemKey       string    `json:"item_key"`
	Type          string    `json:"type"`
	TotalQuantity float64   `json:"total_quantity"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LocationEntry records how much of an inventory record sits at one location.
// Entries only exist while their quantity is positive; draining an entry
// removes the row.
type LocationEntry struct {
	InventoryID  string  `json:"inventory_id"`
	LocationName string  `json:"location_name"`
	Quantity     float64 `json:"quantity"`
}

// Movement is the journal entry for a ledger mutation. A nil FromLocation
// means stock entered from outside (a purchase); a nil ToLocation means it
// was used up or discarded.
type Movement struct {
	ID           int64     `json:"id"`
	InventoryID  string    `json:"inventory_id"`
	FromLocation string    `json:"from_location,omitempty"`
	ToLocation   string    `json:"to_location,omitempty"`
	Quantity     float64   `json:"quantity"`
	Notes        string    `json:"notes,omitempty"`
	MovedAt      time.Time `json:"moved_at"`
}

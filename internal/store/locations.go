package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"molten/internal/model"
)

// LocationQuantity is one (location, quantity) pair for SetLocations.
type LocationQuantity struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// normalizeLocationName trims a location name and collapses internal
// whitespace. Case is preserved since names are display strings.
func normalizeLocationName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", fmt.Errorf("%w: location name must not be empty", ErrValidation)
	}
	return name, nil
}

// SetLocations replaces all location entries for an inventory record with the
// given set. Pairs with non-positive quantities are dropped rather than
// stored as zero rows. Fails without touching the database if any quantity
// is negative. The record's total quantity is left alone: this call
// redistributes stock, and any drift it introduces is for the validation
// queries to report.
func SetLocations(ctx context.Context, db *sql.DB, inventoryID string, locations []LocationQuantity) error {
	type entry struct {
		name string
		qty  float64
	}
	var keep []entry
	for _, l := range locations {
		if l.Quantity < 0 {
			return fmt.Errorf("%w: negative quantity %g for location %q", ErrInvalidQuantity, l.Quantity, l.Name)
		}
		if l.Quantity <= model.QuantityTolerance {
			continue
		}
		name, err := normalizeLocationName(l.Name)
		if err != nil {
			return err
		}
		keep = append(keep, entry{name, l.Quantity})
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM location_entries WHERE inventory_id = ?`, inventoryID,
	); err != nil {
		return fmt.Errorf("clearing location entries: %w", err)
	}

	for _, e := range keep {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO location_entries (inventory_id, location_name, quantity) VALUES (?, ?, ?)
			 ON CONFLICT (inventory_id, location_name) DO UPDATE SET quantity = quantity + excluded.quantity`,
			inventoryID, e.name, e.qty,
		)
		if err != nil {
			return fmt.Errorf("inserting location entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing location set: %w", err)
	}
	return nil
}

// AddQuantity adds stock at a location, creating the entry if needed. The
// owning record's total quantity grows by the same amount in the same
// transaction, and the addition is journaled as an inbound movement.
// Returns the resulting entry.
func AddQuantity(ctx context.Context, db *sql.DB, qty float64, location, inventoryID string) (*model.LocationEntry, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity to add must be positive, got %g", ErrInvalidQuantity, qty)
	}
	name, err := normalizeLocationName(location)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO location_entries (inventory_id, location_name, quantity) VALUES (?, ?, ?)
		 ON CONFLICT (inventory_id, location_name) DO UPDATE SET quantity = quantity + ?`,
		inventoryID, name, qty, qty,
	)
	if err != nil {
		return nil, fmt.Errorf("adding quantity: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE inventory_records
		 SET total_quantity = total_quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		qty, inventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating record total: %w", err)
	}

	if err := journalMovement(ctx, tx, inventoryID, "", name, qty, ""); err != nil {
		return nil, err
	}

	var entry model.LocationEntry
	err = tx.QueryRowContext(ctx,
		`SELECT inventory_id, location_name, quantity FROM location_entries
		 WHERE inventory_id = ? AND location_name = ?`,
		inventoryID, name,
	).Scan(&entry.InventoryID, &entry.LocationName, &entry.Quantity)
	if err != nil {
		return nil, fmt.Errorf("reading back entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing addition: %w", err)
	}
	return &entry, nil
}

// SubtractQuantity removes stock from a location. Fails with
// ErrLocationNotFound if no entry exists for the pair, and with
// ErrInsufficientQuantity if the entry holds less than requested. An entry
// drained to within tolerance of zero is deleted; the call then returns
// (nil, nil) instead of a zero entry. The owning record's total shrinks by
// the same amount, and the subtraction is journaled as an outbound movement.
func SubtractQuantity(ctx context.Context, db *sql.DB, qty float64, location, inventoryID string) (*model.LocationEntry, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity to subtract must be positive, got %g", ErrInvalidQuantity, qty)
	}
	name, err := normalizeLocationName(location)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := subtractInTx(ctx, tx, qty, name, inventoryID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE inventory_records
		 SET total_quantity = MAX(total_quantity - ?, 0), updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		qty, inventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating record total: %w", err)
	}

	if err := journalMovement(ctx, tx, inventoryID, name, "", qty, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing subtraction: %w", err)
	}
	return entry, nil
}

// subtractInTx applies a subtraction against one location entry inside an
// open transaction. Returns the surviving entry, or nil if the row was
// drained and deleted.
func subtractInTx(ctx context.Context, tx *sql.Tx, qty float64, name, inventoryID string) (*model.LocationEntry, error) {
	var current float64
	err := tx.QueryRowContext(ctx,
		`SELECT quantity FROM location_entries WHERE inventory_id = ? AND location_name = ?`,
		inventoryID, name,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no entry for location %q", ErrLocationNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("checking current quantity: %w", err)
	}

	if qty > current+model.QuantityTolerance {
		return nil, fmt.Errorf("%w: have %g at %q, need %g", ErrInsufficientQuantity, current, name, qty)
	}

	remaining := current - qty
	if remaining <= model.QuantityTolerance {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM location_entries WHERE inventory_id = ? AND location_name = ?`,
			inventoryID, name,
		)
		if err != nil {
			return nil, fmt.Errorf("removing drained entry: %w", err)
		}
		return nil, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE location_entries SET quantity = ? WHERE inventory_id = ? AND location_name = ?`,
		remaining, inventoryID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("updating entry: %w", err)
	}
	return &model.LocationEntry{InventoryID: inventoryID, LocationName: name, Quantity: remaining}, nil
}

// MoveQuantity relocates stock between two locations of the same inventory
// record as one atomic unit: either both the subtraction and the addition
// apply, or neither does. Moving between identical locations is a no-op
// success. The record total is unchanged by a move.
func MoveQuantity(ctx context.Context, db *sql.DB, qty float64, from, to, inventoryID string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity to move must be positive, got %g", ErrInvalidQuantity, qty)
	}
	fromName, err := normalizeLocationName(from)
	if err != nil {
		return err
	}
	toName, err := normalizeLocationName(to)
	if err != nil {
		return err
	}
	if fromName == toName {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := subtractInTx(ctx, tx, qty, fromName, inventoryID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO location_entries (inventory_id, location_name, quantity) VALUES (?, ?, ?)
		 ON CONFLICT (inventory_id, location_name) DO UPDATE SET quantity = quantity + ?`,
		inventoryID, toName, qty, qty,
	)
	if err != nil {
		return fmt.Errorf("adding to destination: %w", err)
	}

	if err := journalMovement(ctx, tx, inventoryID, fromName, toName, qty, ""); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing move: %w", err)
	}
	return nil
}

// journalMovement records a ledger mutation in the movements audit table.
// Empty location names are stored as NULL.
func journalMovement(ctx context.Context, tx *sql.Tx, inventoryID, from, to string, qty float64, notes string) error {
	var fromVal, toVal any
	if from != "" {
		fromVal = from
	}
	if to != "" {
		toVal = to
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO movements (inventory_id, from_location, to_location, quantity, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		inventoryID, fromVal, toVal, qty, notes,
	)
	if err != nil {
		return fmt.Errorf("journaling movement: %w", err)
	}
	return nil
}

// GetLocations returns all location entries for an inventory record.
func GetLocations(ctx context.Context, db *sql.DB, inventoryID string) ([]model.LocationEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT inventory_id, location_name, quantity FROM location_entries
		 WHERE inventory_id = ? ORDER BY location_name`, inventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing location entries: %w", err)
	}
	defer rows.Close()

	return scanLocationEntries(rows)
}

// GetLocationEntry returns the entry for one (record, location) pair, or nil
// if none exists.
func GetLocationEntry(ctx context.Context, db *sql.DB, inventoryID, location string) (*model.LocationEntry, error) {
	name, err := normalizeLocationName(location)
	if err != nil {
		return nil, err
	}

	var entry model.LocationEntry
	err = db.QueryRowContext(ctx,
		`SELECT inventory_id, location_name, quantity FROM location_entries
		 WHERE inventory_id = ? AND location_name = ?`,
		inventoryID, name,
	).Scan(&entry.InventoryID, &entry.LocationName, &entry.Quantity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting location entry: %w", err)
	}
	return &entry, nil
}

// GetDistinctLocationNames returns every location name in use, sorted.
func GetDistinctLocationNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT location_name FROM location_entries ORDER BY location_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing location names: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// SearchLocationNames returns location names starting with the given prefix.
func SearchLocationNames(ctx context.Context, db *sql.DB, prefix string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT location_name FROM location_entries
		 WHERE location_name LIKE ? ORDER BY location_name`,
		prefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("searching location names: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// GetInventoriesInLocation returns all entries stored at one location.
func GetInventoriesInLocation(ctx context.Context, db *sql.DB, location string) ([]model.LocationEntry, error) {
	name, err := normalizeLocationName(location)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT inventory_id, location_name, quantity FROM location_entries
		 WHERE location_name = ? ORDER BY inventory_id`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("listing location contents: %w", err)
	}
	defer rows.Close()

	return scanLocationEntries(rows)
}

// GetLocationUtilization returns the total quantity held at each location,
// summed across all inventory records.
func GetLocationUtilization(ctx context.Context, db *sql.DB) (map[string]float64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT location_name, SUM(quantity) FROM location_entries GROUP BY location_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("computing location utilization: %w", err)
	}
	defer rows.Close()

	utilization := make(map[string]float64)
	for rows.Next() {
		var name string
		var total float64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("scanning utilization: %w", err)
		}
		utilization[name] = total
	}
	return utilization, rows.Err()
}

// GetLocationUsageCounts returns how many inventory records are stored at
// each location.
func GetLocationUsageCounts(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT location_name, COUNT(DISTINCT inventory_id) FROM location_entries GROUP BY location_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("computing location usage: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scanning usage count: %w", err)
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

// ValidateLocationQuantities reports whether the entries for an inventory
// record sum to the expected total within tolerance.
func ValidateLocationQuantities(ctx context.Context, db *sql.DB, inventoryID string, expectedTotal float64) (bool, error) {
	diff, err := GetLocationQuantityDiscrepancy(ctx, db, inventoryID, expectedTotal)
	if err != nil {
		return false, err
	}
	return math.Abs(diff) <= model.QuantityTolerance, nil
}

// GetLocationQuantityDiscrepancy returns the signed difference between the
// summed location quantities of a record and the expected total. A positive
// result means the ledger holds more than expected.
func GetLocationQuantityDiscrepancy(ctx context.Context, db *sql.DB, inventoryID string, expectedTotal float64) (float64, error) {
	var sum float64
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM location_entries WHERE inventory_id = ?`,
		inventoryID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("summing location quantities: %w", err)
	}
	return sum - expectedTotal, nil
}

// FindOrphanedLocations returns location entries whose inventory record no
// longer exists. Orphans indicate a bookkeeping bug; they are reported
// as-is, never repaired.
func FindOrphanedLocations(ctx context.Context, db *sql.DB) ([]model.LocationEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT le.inventory_id, le.location_name, le.quantity
		 FROM location_entries le
		 LEFT JOIN inventory_records r ON r.id = le.inventory_id
		 WHERE r.id IS NULL
		 ORDER BY le.inventory_id, le.location_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("finding orphaned locations: %w", err)
	}
	defer rows.Close()

	return scanLocationEntries(rows)
}

// ListMovements returns the movement journal for an inventory record, newest
// first.
func ListMovements(ctx context.Context, db *sql.DB, inventoryID string) ([]model.Movement, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, inventory_id, from_location, to_location, quantity, notes, moved_at
		 FROM movements WHERE inventory_id = ? ORDER BY moved_at DESC, id DESC`,
		inventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	defer rows.Close()

	var movements []model.Movement
	for rows.Next() {
		var m model.Movement
		var from, to, notes sql.NullString
		if err := rows.Scan(&m.ID, &m.InventoryID, &from, &to, &m.Quantity, &notes, &m.MovedAt); err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		m.FromLocation = from.String
		m.ToLocation = to.String
		m.Notes = notes.String
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func scanLocationEntries(rows *sql.Rows) ([]model.LocationEntry, error) {
	var entries []model.LocationEntry
	for rows.Next() {
		var e model.LocationEntry
		if err := rows.Scan(&e.InventoryID, &e.LocationName, &e.Quantity); err != nil {
			return nil, fmt.Errorf("scanning location entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

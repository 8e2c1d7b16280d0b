package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"molten/internal/model"
)

// CreateInventoryRecord creates an owned lot of an item. The item must exist
// in the catalog; lots of unknown items are how orphans are born.
func CreateInventoryRecord(ctx context.Context, db *sql.DB, itemKey, itemType string, totalQuantity float64, notes string) (*model.InventoryRecord, error) {
	if totalQuantity < 0 {
		return nil, fmt.Errorf("%w: total quantity must not be negative, got %g", ErrInvalidQuantity, totalQuantity)
	}

	exists, err := ItemExists(ctx, db, itemKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: no catalog item %q", ErrItemNotFound, itemKey)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO inventory_records (id, item_key, type, total_quantity, notes) VALUES (?, ?, ?, ?, ?)`,
		id, itemKey, model.CleanType(itemType), totalQuantity, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating inventory record: %w", err)
	}

	return GetInventoryRecord(ctx, db, id)
}

// GetInventoryRecord returns an inventory record by ID, or nil if not found.
func GetInventoryRecord(ctx context.Context, db *sql.DB, id string) (*model.InventoryRecord, error) {
	r := &model.InventoryRecord{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, item_key, type, total_quantity, notes, created_at, updated_at
		 FROM inventory_records WHERE id = ?`, id,
	).Scan(&r.ID, &r.ItemKey, &r.Type, &r.TotalQuantity, &notes, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory record: %w", err)
	}
	r.Notes = notes.String
	return r, nil
}

// ListInventoryRecords returns inventory records, optionally filtered by
// item key.
func ListInventoryRecords(ctx context.Context, db *sql.DB, itemKey string) ([]model.InventoryRecord, error) {
	query := `SELECT id, item_key, type, total_quantity, notes, created_at, updated_at
	          FROM inventory_records`
	var args []any
	if itemKey != "" {
		query += ` WHERE item_key = ?`
		args = append(args, itemKey)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventory records: %w", err)
	}
	defer rows.Close()

	var records []model.InventoryRecord
	for rows.Next() {
		var r model.InventoryRecord
		var notes sql.NullString
		if err := rows.Scan(&r.ID, &r.ItemKey, &r.Type, &r.TotalQuantity, &notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning inventory record: %w", err)
		}
		r.Notes = notes.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// UpdateInventoryRecordNotes updates a record's free-text notes.
func UpdateInventoryRecordNotes(ctx context.Context, db *sql.DB, id, notes string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE inventory_records SET notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		notes, id,
	)
	if err != nil {
		return fmt.Errorf("updating inventory record: %w", err)
	}
	return nil
}

// DeleteInventoryRecord removes a record and cascades its location entries
// in the same transaction.
func DeleteInventoryRecord(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM location_entries WHERE inventory_id = ?`, id,
	); err != nil {
		return fmt.Errorf("deleting location entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM inventory_records WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("deleting inventory record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing record deletion: %w", err)
	}
	return nil
}

// GetCurrentQuantities aggregates live stock from the location ledger into a
// map keyed by item key, then type. Items with no ledger rows simply don't
// appear; absence means zero stock.
func GetCurrentQuantities(ctx context.Context, db *sql.DB) (map[string]map[string]float64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.item_key, r.type, SUM(le.quantity)
		 FROM location_entries le
		 JOIN inventory_records r ON r.id = le.inventory_id
		 GROUP BY r.item_key, r.type`,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating current quantities: %w", err)
	}
	defer rows.Close()

	quantities := make(map[string]map[string]float64)
	for rows.Next() {
		var itemKey, itemType string
		var qty float64
		if err := rows.Scan(&itemKey, &itemType, &qty); err != nil {
			return nil, fmt.Errorf("scanning quantity: %w", err)
		}
		byType := quantities[itemKey]
		if byType == nil {
			byType = make(map[string]float64)
			quantities[itemKey] = byType
		}
		byType[itemType] += qty
	}
	return quantities, rows.Err()
}

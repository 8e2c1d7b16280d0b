package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"molten/internal/model"
)

// SetMinimumQuantity upserts the restock threshold for an (item, type) pair.
// Negative quantities are clamped to zero rather than rejected. A missing
// catalog item is only a warning: thresholds may be configured before the
// item record arrives from an import.
func SetMinimumQuantity(ctx context.Context, db *sql.DB, qty float64, itemKey, itemType, storeName string) (*model.ItemMinimum, error) {
	if itemKey == "" {
		return nil, fmt.Errorf("%w: item key is required", ErrValidation)
	}
	if qty < 0 {
		qty = 0
	}
	itemType = model.CleanType(itemType)
	storeName = model.CleanStoreName(storeName)

	exists, err := ItemExists(ctx, db, itemKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		slog.Warn("minimum set for unknown item", "item_key", itemKey, "type", itemType)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO minimums (id, item_key, type, quantity, store) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (item_key, type) DO UPDATE
		 SET quantity = excluded.quantity, store = excluded.store, updated_at = CURRENT_TIMESTAMP`,
		uuid.NewString(), itemKey, itemType, qty, storeName,
	)
	if err != nil {
		return nil, fmt.Errorf("setting minimum quantity: %w", err)
	}

	return GetMinimum(ctx, db, itemKey, itemType)
}

// CreateMinimums writes a batch of thresholds in one transaction. The batch
// is validated up front; if any element is invalid, nothing is written.
func CreateMinimums(ctx context.Context, db *sql.DB, minimums []model.ItemMinimum) error {
	for i := range minimums {
		m := &minimums[i]
		if m.ItemKey == "" {
			return fmt.Errorf("minimum %d: %w: item key is required", i, ErrValidation)
		}
		if m.Quantity < 0 {
			m.Quantity = 0
		}
		m.Type = model.CleanType(m.Type)
		m.Store = model.CleanStoreName(m.Store)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range minimums {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO minimums (id, item_key, type, quantity, store) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (item_key, type) DO UPDATE
			 SET quantity = excluded.quantity, store = excluded.store, updated_at = CURRENT_TIMESTAMP`,
			uuid.NewString(), m.ItemKey, m.Type, m.Quantity, m.Store,
		)
		if err != nil {
			return fmt.Errorf("creating minimum for %q: %w", m.ItemKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing minimum batch: %w", err)
	}
	return nil
}

// GetMinimum returns the threshold for an (item, type) pair, or nil if none
// is configured.
func GetMinimum(ctx context.Context, db *sql.DB, itemKey, itemType string) (*model.ItemMinimum, error) {
	m := &model.ItemMinimum{}
	err := db.QueryRowContext(ctx,
		`SELECT id, item_key, type, quantity, store, created_at, updated_at
		 FROM minimums WHERE item_key = ? AND type = ?`,
		itemKey, model.CleanType(itemType),
	).Scan(&m.ID, &m.ItemKey, &m.Type, &m.Quantity, &m.Store, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting minimum: %w", err)
	}
	return m, nil
}

// ListMinimums returns all thresholds, optionally filtered by store.
func ListMinimums(ctx context.Context, db *sql.DB, storeName string) ([]model.ItemMinimum, error) {
	query := `SELECT id, item_key, type, quantity, store, created_at, updated_at FROM minimums`
	var args []any
	if storeName != "" {
		query += ` WHERE store = ?`
		args = append(args, model.CleanStoreName(storeName))
	}
	query += ` ORDER BY item_key, type`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing minimums: %w", err)
	}
	defer rows.Close()

	var minimums []model.ItemMinimum
	for rows.Next() {
		var m model.ItemMinimum
		if err := rows.Scan(&m.ID, &m.ItemKey, &m.Type, &m.Quantity, &m.Store, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning minimum: %w", err)
		}
		minimums = append(minimums, m)
	}
	return minimums, rows.Err()
}

// DeleteMinimum removes the threshold for an (item, type) pair.
func DeleteMinimum(ctx context.Context, db *sql.DB, itemKey, itemType string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM minimums WHERE item_key = ? AND type = ?`,
		itemKey, model.CleanType(itemType),
	)
	if err != nil {
		return fmt.Errorf("deleting minimum: %w", err)
	}
	return nil
}

// GetDistinctStores returns every preferred store configured on a threshold,
// sorted. The empty store (no preference) is excluded.
func GetDistinctStores(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT store FROM minimums WHERE store != '' ORDER BY store`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// SearchStores returns store names starting with the given prefix.
func SearchStores(ctx context.Context, db *sql.DB, prefix string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT store FROM minimums WHERE store != '' AND store LIKE ? ORDER BY store`,
		prefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("searching stores: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// GetStoreUtilization returns how many threshold records point at each store.
func GetStoreUtilization(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT store, COUNT(*) FROM minimums WHERE store != '' GROUP BY store`,
	)
	if err != nil {
		return nil, fmt.Errorf("computing store utilization: %w", err)
	}
	defer rows.Close()

	utilization := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scanning store utilization: %w", err)
		}
		utilization[name] = count
	}
	return utilization, rows.Err()
}

// UpdateStoreName renames a store across every threshold that references it.
// Returns the number of rows updated.
func UpdateStoreName(ctx context.Context, db *sql.DB, oldName, newName string) (int64, error) {
	newName = model.CleanStoreName(newName)
	if newName == "" {
		return 0, fmt.Errorf("%w: new store name must not be empty", ErrValidation)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE minimums SET store = ?, updated_at = CURRENT_TIMESTAMP WHERE store = ?`,
		newName, model.CleanStoreName(oldName),
	)
	if err != nil {
		return 0, fmt.Errorf("renaming store: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting renamed rows: %w", err)
	}
	return updated, nil
}

// MinimumStatistics summarizes the configured thresholds.
type MinimumStatistics struct {
	Count          int     `json:"count"`
	MeanQuantity   float64 `json:"mean_quantity"`
	MaxQuantity    float64 `json:"max_quantity"`
	MinQuantity    float64 `json:"min_quantity"`
	DistinctStores int     `json:"distinct_stores"`
	DistinctTypes  int     `json:"distinct_types"`
	DistinctItems  int     `json:"distinct_items"`
}

// GetMinimumQuantityStatistics computes threshold statistics in one query.
// An empty table yields the zero value.
func GetMinimumQuantityStatistics(ctx context.Context, db *sql.DB) (*MinimumStatistics, error) {
	stats := &MinimumStatistics{}
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(AVG(quantity), 0),
		        COALESCE(MAX(quantity), 0),
		        COALESCE(MIN(quantity), 0),
		        COUNT(DISTINCT CASE WHEN store != '' THEN store END),
		        COUNT(DISTINCT type),
		        COUNT(DISTINCT item_key)
		 FROM minimums`,
	).Scan(&stats.Count, &stats.MeanQuantity, &stats.MaxQuantity, &stats.MinQuantity,
		&stats.DistinctStores, &stats.DistinctTypes, &stats.DistinctItems)
	if err != nil {
		return nil, fmt.Errorf("computing minimum statistics: %w", err)
	}
	return stats, nil
}

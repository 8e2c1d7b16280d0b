package store

import (
	"context"
	"database/sql"
	"fmt"
)

// MigrateLegacyKeys rewrites references from legacy item identifiers to
// natural keys across inventory records, minimums, and tag edges. The
// mapping comes from the old database's export; this runs once during
// upgrade and nothing else in the system understands legacy keys.
// Returns the total number of rows rewritten.
func MigrateLegacyKeys(ctx context.Context, db *sql.DB, mapping map[string]string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, table := range []string{"inventory_records", "minimums", "item_tags"} {
		stmt := fmt.Sprintf(`UPDATE %s SET item_key = ? WHERE item_key = ?`, table)
		for legacy, natural := range mapping {
			result, err := tx.ExecContext(ctx, stmt, natural, legacy)
			if err != nil {
				return 0, fmt.Errorf("rewriting %s keys: %w", table, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("counting rewritten rows: %w", err)
			}
			total += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing key migration: %w", err)
	}
	return total, nil
}

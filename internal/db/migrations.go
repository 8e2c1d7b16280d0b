package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: minimums predating the store column default carry NULLs.
	`UPDATE minimums SET store = '' WHERE store IS NULL`,

	// Migration 2: movements written before per-record journaling stored
	// empty location names instead of NULL.
	`UPDATE movements SET from_location = NULL WHERE from_location = ''`,
	`UPDATE movements SET to_location = NULL WHERE to_location = ''`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

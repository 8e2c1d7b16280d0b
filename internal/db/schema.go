package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// location_entries deliberately carries no foreign key to inventory_records:
// orphaned rows must stay queryable so the store can report them.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    key          TEXT PRIMARY KEY,
    manufacturer TEXT NOT NULL,
    sku          TEXT NOT NULL,
    name         TEXT NOT NULL,
    type         TEXT NOT NULL DEFAULT 'rod',
    coe          TEXT,
    notes        TEXT,
    image        BLOB,
    image_mime   TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS inventory_records (
    id             TEXT PRIMARY KEY,
    item_key       TEXT NOT NULL,
    type           TEXT NOT NULL DEFAULT 'rod',
    total_quantity REAL NOT NULL DEFAULT 0 CHECK (total_quantity >= 0),
    notes          TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_inventory_records_item
    ON inventory_records(item_key);

CREATE TABLE IF NOT EXISTS location_entries (
    inventory_id  TEXT NOT NULL,
    location_name TEXT NOT NULL,
    quantity      REAL NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (inventory_id, location_name)
);

CREATE INDEX IF NOT EXISTS idx_location_entries_name
    ON location_entries(location_name);

CREATE TABLE IF NOT EXISTS movements (
    id            INTEGER PRIMARY KEY,
    inventory_id  TEXT NOT NULL,
    from_location TEXT,
    to_location   TEXT,
    quantity      REAL NOT NULL CHECK (quantity > 0),
    notes         TEXT,
    moved_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS minimums (
    id         TEXT PRIMARY KEY,
    item_key   TEXT NOT NULL,
    type       TEXT NOT NULL,
    quantity   REAL NOT NULL CHECK (quantity >= 0),
    store      TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (item_key, type)
);

CREATE TABLE IF NOT EXISTS item_tags (
    id       TEXT PRIMARY KEY,
    item_key TEXT NOT NULL,
    tag      TEXT NOT NULL,
    UNIQUE (item_key, tag)
);

CREATE INDEX IF NOT EXISTS idx_item_tags_tag
    ON item_tags(tag);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

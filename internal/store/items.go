package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"molten/internal/model"
	"molten/internal/search"
)

// CreateItem inserts a catalog item. The natural key is derived from
// manufacturer and SKU when not provided.
func CreateItem(ctx context.Context, db *sql.DB, item model.Item) (*model.Item, error) {
	if err := validateItem(&item); err != nil {
		return nil, err
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (key, manufacturer, sku, name, type, coe, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Key, item.Manufacturer, item.SKU, item.Name, item.Type, item.COE, item.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, item.Key)
}

// CreateItems inserts a batch of catalog items in one transaction. The whole
// batch is validated up front; if any element is invalid, nothing is written.
func CreateItems(ctx context.Context, db *sql.DB, items []model.Item) error {
	for i := range items {
		if err := validateItem(&items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (key, manufacturer, sku, name, type, coe, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.Key, item.Manufacturer, item.SKU, item.Name, item.Type, item.COE, item.Notes,
		)
		if err != nil {
			return fmt.Errorf("creating item %q: %w", item.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item batch: %w", err)
	}
	return nil
}

func validateItem(item *model.Item) error {
	item.Manufacturer = strings.TrimSpace(item.Manufacturer)
	item.SKU = strings.TrimSpace(item.SKU)
	item.Name = strings.TrimSpace(item.Name)
	if item.Manufacturer == "" || item.SKU == "" || item.Name == "" {
		return fmt.Errorf("%w: manufacturer, sku, and name are required", ErrValidation)
	}
	if item.Type == "" {
		item.Type = model.ItemTypeRod
	}
	item.Type = model.CleanType(item.Type)
	if item.Key == "" {
		item.Key = model.NaturalKey(item.Manufacturer, item.SKU)
	}
	return nil
}

// GetItem returns a catalog item by natural key, or nil if not found.
func GetItem(ctx context.Context, db *sql.DB, key string) (*model.Item, error) {
	item := &model.Item{}
	var coe, notes, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT key, manufacturer, sku, name, type, coe, notes, image_mime, created_at, updated_at
		 FROM items WHERE key = ?`, key,
	).Scan(&item.Key, &item.Manufacturer, &item.SKU, &item.Name, &item.Type,
		&coe, &notes, &imageMime, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.COE = coe.String
	item.Notes = notes.String
	item.ImageMime = imageMime.String
	return item, nil
}

// ItemExists reports whether a catalog item with the given key exists.
func ItemExists(ctx context.Context, db *sql.DB, key string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM items WHERE key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking item existence: %w", err)
	}
	return true, nil
}

// ListItems returns all catalog items, optionally filtered by type.
func ListItems(ctx context.Context, db *sql.DB, itemType string) ([]model.Item, error) {
	query := `SELECT key, manufacturer, sku, name, type, coe, notes, image_mime, created_at, updated_at
	          FROM items`
	var args []any
	if itemType != "" {
		query += ` WHERE type = ?`
		args = append(args, model.CleanType(itemType))
	}
	query += ` ORDER BY manufacturer, name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// SearchItems returns catalog items accepted by a parsed query plan. Each
// term must appear (case-insensitively) in the name, SKU, manufacturer, or
// notes; multi-term plans require all terms, each free to hit a different
// field. An empty plan returns the unfiltered list.
func SearchItems(ctx context.Context, db *sql.DB, plan search.Plan) ([]model.Item, error) {
	if plan.IsEmpty() {
		return ListItems(ctx, db, "")
	}

	query := `SELECT key, manufacturer, sku, name, type, coe, notes, image_mime, created_at, updated_at
	          FROM items WHERE 1=1`
	var args []any
	for _, term := range plan.Terms {
		query += ` AND (name LIKE ? ESCAPE '\' OR sku LIKE ? ESCAPE '\'
		           OR manufacturer LIKE ? ESCAPE '\' OR COALESCE(notes, '') LIKE ? ESCAPE '\')`
		pattern := "%" + escapeLike(term) + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}
	query += ` ORDER BY manufacturer, name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// escapeLike escapes LIKE wildcards in user-supplied search terms.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// UpdateItem updates a catalog item's mutable attributes.
func UpdateItem(ctx context.Context, db *sql.DB, key, name, itemType, coe, notes string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}

	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, type = ?, coe = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE key = ?`,
		name, model.CleanType(itemType), coe, notes, key,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem removes a catalog item along with its tag edges and minimum
// thresholds. Inventory records referencing the key are left for the caller;
// the orphan scan surfaces any it forgets.
func DeleteItem(ctx context.Context, db *sql.DB, key string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM item_tags WHERE item_key = ?`,
		`DELETE FROM minimums WHERE item_key = ?`,
		`DELETE FROM items WHERE key = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, key); err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item deletion: %w", err)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, key string, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ?`,
		image, mime, key,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, key string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE key = ?`, key,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		var coe, notes, imageMime sql.NullString
		if err := rows.Scan(&item.Key, &item.Manufacturer, &item.SKU, &item.Name, &item.Type,
			&coe, &notes, &imageMime, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.COE = coe.String
		item.Notes = notes.String
		item.ImageMime = imageMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

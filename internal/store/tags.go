package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Tag length bounds, applied to the normalized form.
const (
	MinTagLength = 2
	MaxTagLength = 30
)

var (
	tagChars     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	userTagChars = regexp.MustCompile(`^[a-zA-Z0-9_\s-]+$`)
	tagSeparator = regexp.MustCompile(`[\s_]+`)
	multiHyphen  = regexp.MustCompile(`-{2,}`)
)

// NormalizeTag canonicalizes a tag: lowercase, whitespace and underscores
// become hyphens, repeated hyphens collapse. "Dark Blue" and "dark_blue"
// both come out as "dark-blue".
func NormalizeTag(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	tag = tagSeparator.ReplaceAllString(tag, "-")
	tag = multiHyphen.ReplaceAllString(tag, "-")
	return strings.Trim(tag, "-")
}

// ValidateTag checks a machine-sourced tag (imports, scrapers): letters,
// digits, hyphens, and underscores only.
func ValidateTag(raw string) error {
	if !tagChars.MatchString(raw) {
		return fmt.Errorf("%w: tag %q contains invalid characters", ErrValidation, raw)
	}
	return validateTagLength(raw)
}

// ValidateUserTag checks a user-entered tag, which may additionally contain
// whitespace (normalized away afterwards).
func ValidateUserTag(raw string) error {
	if strings.TrimSpace(raw) == "" || !userTagChars.MatchString(raw) {
		return fmt.Errorf("%w: tag %q contains invalid characters", ErrValidation, raw)
	}
	return validateTagLength(raw)
}

func validateTagLength(raw string) error {
	normalized := NormalizeTag(raw)
	if len(normalized) < MinTagLength || len(normalized) > MaxTagLength {
		return fmt.Errorf("%w: tag %q must normalize to %d-%d characters", ErrValidation, raw, MinTagLength, MaxTagLength)
	}
	return nil
}

// normalizeTagSet validates and normalizes a batch of raw tags, dropping
// duplicates after normalization. Order of first appearance is preserved.
func normalizeTagSet(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	var tags []string
	for _, r := range raw {
		if err := ValidateUserTag(r); err != nil {
			return nil, err
		}
		tag := NormalizeTag(r)
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags, nil
}

// SetTags replaces the full tag set for an item. All tags are validated
// before anything is written; a single bad tag aborts the whole call.
// Edges have no identity beyond the (item, tag) pair, so replacement is a
// plain delete-and-insert.
func SetTags(ctx context.Context, db *sql.DB, tags []string, itemKey string) error {
	if itemKey == "" {
		return fmt.Errorf("%w: item key is required", ErrValidation)
	}
	normalized, err := normalizeTagSet(tags)
	if err != nil {
		return err
	}

	if err := warnUnknownItem(ctx, db, itemKey); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_tags WHERE item_key = ?`, itemKey,
	); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}

	for _, tag := range normalized {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_tags (id, item_key, tag) VALUES (?, ?, ?)`,
			uuid.NewString(), itemKey, tag,
		); err != nil {
			return fmt.Errorf("inserting tag %q: %w", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tag set: %w", err)
	}
	return nil
}

// AddTags adds tags to an item without touching existing edges. The batch is
// all-or-nothing: one invalid tag and nothing is written.
func AddTags(ctx context.Context, db *sql.DB, tags []string, itemKey string) error {
	if itemKey == "" {
		return fmt.Errorf("%w: item key is required", ErrValidation)
	}
	normalized, err := normalizeTagSet(tags)
	if err != nil {
		return err
	}

	if err := warnUnknownItem(ctx, db, itemKey); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, tag := range normalized {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO item_tags (id, item_key, tag) VALUES (?, ?, ?)`,
			uuid.NewString(), itemKey, tag,
		); err != nil {
			return fmt.Errorf("inserting tag %q: %w", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tag additions: %w", err)
	}
	return nil
}

// RemoveTag deletes one tag edge from an item.
func RemoveTag(ctx context.Context, db *sql.DB, tag, itemKey string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM item_tags WHERE item_key = ? AND tag = ?`,
		itemKey, NormalizeTag(tag),
	)
	if err != nil {
		return fmt.Errorf("removing tag: %w", err)
	}
	return nil
}

// warnUnknownItem logs when a tag or threshold write references a catalog
// key that doesn't exist yet. Not an error: tags can precede their items.
func warnUnknownItem(ctx context.Context, db *sql.DB, itemKey string) error {
	exists, err := ItemExists(ctx, db, itemKey)
	if err != nil {
		return err
	}
	if !exists {
		slog.Warn("tags set for unknown item", "item_key", itemKey)
	}
	return nil
}

// GetTags returns an item's tags, sorted.
func GetTags(ctx context.Context, db *sql.DB, itemKey string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT tag FROM item_tags WHERE item_key = ? ORDER BY tag`, itemKey,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item tags: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// GetAllTags returns every distinct tag in use, sorted.
func GetAllTags(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT tag FROM item_tags ORDER BY tag`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// SearchTags returns tags starting with the given prefix. The prefix is
// normalized first so "Dark" finds "dark-blue".
func SearchTags(ctx context.Context, db *sql.DB, prefix string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT tag FROM item_tags WHERE tag LIKE ? ORDER BY tag`,
		NormalizeTag(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("searching tags: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// TagCount pairs a tag with the number of distinct items carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// GetMostUsedTags returns the most-used tags, by distinct item count
// descending, capped at limit.
func GetMostUsedTags(ctx context.Context, db *sql.DB, limit int) ([]TagCount, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT tag, COUNT(DISTINCT item_key) AS uses FROM item_tags
		 GROUP BY tag ORDER BY uses DESC, tag LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing most-used tags: %w", err)
	}
	defer rows.Close()

	return scanTagCounts(rows)
}

// ItemsWithTag returns the keys of items carrying a tag.
func ItemsWithTag(ctx context.Context, db *sql.DB, tag string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT item_key FROM item_tags WHERE tag = ? ORDER BY item_key`,
		NormalizeTag(tag),
	)
	if err != nil {
		return nil, fmt.Errorf("listing items with tag: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// ItemsWithAllTags returns keys of items carrying every given tag (set
// intersection over the per-tag item sets).
func ItemsWithAllTags(ctx context.Context, db *sql.DB, tags []string) ([]string, error) {
	normalized, err := normalizeTagSet(tags)
	if err != nil {
		return nil, err
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	query := `SELECT item_key FROM item_tags WHERE tag IN (?` +
		strings.Repeat(", ?", len(normalized)-1) +
		`) GROUP BY item_key HAVING COUNT(DISTINCT tag) = ? ORDER BY item_key`
	args := make([]any, 0, len(normalized)+1)
	for _, tag := range normalized {
		args = append(args, tag)
	}
	args = append(args, len(normalized))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items with all tags: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// ItemsWithAnyTags returns keys of items carrying at least one of the given
// tags (set union).
func ItemsWithAnyTags(ctx context.Context, db *sql.DB, tags []string) ([]string, error) {
	normalized, err := normalizeTagSet(tags)
	if err != nil {
		return nil, err
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	query := `SELECT DISTINCT item_key FROM item_tags WHERE tag IN (?` +
		strings.Repeat(", ?", len(normalized)-1) +
		`) ORDER BY item_key`
	args := make([]any, 0, len(normalized))
	for _, tag := range normalized {
		args = append(args, tag)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items with any tags: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// GetTagUsageCounts returns every tag with its distinct-item count.
func GetTagUsageCounts(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT tag, COUNT(DISTINCT item_key) FROM item_tags GROUP BY tag`,
	)
	if err != nil {
		return nil, fmt.Errorf("computing tag usage: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tag string
		var count int
		if err := rows.Scan(&tag, &count); err != nil {
			return nil, fmt.Errorf("scanning tag usage: %w", err)
		}
		counts[tag] = count
	}
	return counts, rows.Err()
}

// GetTagsWithCounts returns tags used by at least minCount distinct items,
// sorted by count descending.
func GetTagsWithCounts(ctx context.Context, db *sql.DB, minCount int) ([]TagCount, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT tag, COUNT(DISTINCT item_key) AS uses FROM item_tags
		 GROUP BY tag HAVING uses >= ?`, minCount,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tags with counts: %w", err)
	}
	defer rows.Close()

	counts, err := scanTagCounts(rows)
	if err != nil {
		return nil, err
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
	return counts, nil
}

func scanTagCounts(rows *sql.Rows) ([]TagCount, error) {
	var counts []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning tag count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

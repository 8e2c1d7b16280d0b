package store

import (
	"context"
	"errors"
	"testing"

	"molten/internal/db"
	"molten/internal/model"
)

func TestSetMinimumQuantityUpserts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m, err := SetMinimumQuantity(ctx, database, 10, "EF-204", "Rod", "Frantz")
	if err != nil {
		t.Fatalf("SetMinimumQuantity: %v", err)
	}
	if m.Quantity != 10 || m.Type != "rod" || m.Store != "Frantz" {
		t.Errorf("unexpected minimum %+v", m)
	}

	// Second write for the same (item, type) replaces, not duplicates.
	m2, err := SetMinimumQuantity(ctx, database, 15, "EF-204", "rod", "Mountain Glass")
	if err != nil {
		t.Fatalf("SetMinimumQuantity: %v", err)
	}
	if m2.ID != m.ID {
		t.Errorf("expected upsert to keep id %s, got %s", m.ID, m2.ID)
	}
	if m2.Quantity != 15 || m2.Store != "Mountain Glass" {
		t.Errorf("unexpected updated minimum %+v", m2)
	}

	all, _ := ListMinimums(ctx, database, "")
	if len(all) != 1 {
		t.Errorf("expected 1 minimum, got %d", len(all))
	}
}

func TestSetMinimumQuantityClampsNegative(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m, err := SetMinimumQuantity(ctx, database, -5, "EF-204", "rod", "")
	if err != nil {
		t.Fatalf("SetMinimumQuantity: %v", err)
	}
	if m.Quantity != 0 {
		t.Errorf("expected negative quantity clamped to 0, got %g", m.Quantity)
	}
}

func TestSetMinimumQuantityTruncatesStore(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	long := ""
	for i := 0; i < 60; i++ {
		long += "s"
	}
	m, err := SetMinimumQuantity(ctx, database, 1, "EF-204", "rod", long)
	if err != nil {
		t.Fatalf("SetMinimumQuantity: %v", err)
	}
	if len(m.Store) != model.MaxStoreNameLength {
		t.Errorf("expected store truncated to %d chars, got %d", model.MaxStoreNameLength, len(m.Store))
	}
}

func TestCreateMinimumsBatchAtomic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	err := CreateMinimums(ctx, database, []model.ItemMinimum{
		{ItemKey: "EF-204", Type: "rod", Quantity: 10, Store: "Frantz"},
		{ItemKey: "", Type: "rod", Quantity: 5, Store: "Frantz"}, // invalid
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	all, _ := ListMinimums(ctx, database, "")
	if len(all) != 0 {
		t.Errorf("expected no partial batch, got %d rows", len(all))
	}
}

func TestStoreManagement(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SetMinimumQuantity(ctx, database, 10, "EF-204", "rod", "Frantz")
	SetMinimumQuantity(ctx, database, 5, "NS-021", "rod", "Frantz")
	SetMinimumQuantity(ctx, database, 3, "CIM-511", "rod", "Mountain Glass")
	SetMinimumQuantity(ctx, database, 2, "DH-AURAE", "rod", "")

	stores, _ := GetDistinctStores(ctx, database)
	if len(stores) != 2 {
		t.Fatalf("expected 2 stores (empty excluded), got %v", stores)
	}

	matches, _ := SearchStores(ctx, database, "Fra")
	if len(matches) != 1 || matches[0] != "Frantz" {
		t.Errorf("unexpected store search result %v", matches)
	}

	utilization, _ := GetStoreUtilization(ctx, database)
	if utilization["Frantz"] != 2 || utilization["Mountain Glass"] != 1 {
		t.Errorf("unexpected utilization %v", utilization)
	}
}

func TestUpdateStoreName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SetMinimumQuantity(ctx, database, 10, "EF-204", "rod", "Frantz")
	SetMinimumQuantity(ctx, database, 5, "NS-021", "rod", "Frantz")
	SetMinimumQuantity(ctx, database, 3, "CIM-511", "rod", "Mountain Glass")

	updated, err := UpdateStoreName(ctx, database, "Frantz", "Frantz Art Glass")
	if err != nil {
		t.Fatalf("UpdateStoreName: %v", err)
	}
	if updated != 2 {
		t.Errorf("expected 2 rows renamed, got %d", updated)
	}

	renamed, _ := ListMinimums(ctx, database, "Frantz Art Glass")
	if len(renamed) != 2 {
		t.Errorf("expected 2 minimums under new name, got %d", len(renamed))
	}

	_, err = UpdateStoreName(ctx, database, "Mountain Glass", "  ")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for blank new name, got %v", err)
	}
}

func TestMinimumStatistics(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SetMinimumQuantity(ctx, database, 10, "EF-204", "rod", "Frantz")
	SetMinimumQuantity(ctx, database, 20, "EF-204", "frit", "Frantz")
	SetMinimumQuantity(ctx, database, 6, "NS-021", "rod", "Mountain Glass")

	stats, err := GetMinimumQuantityStatistics(ctx, database)
	if err != nil {
		t.Fatalf("GetMinimumQuantityStatistics: %v", err)
	}
	if stats.Count != 3 {
		t.Errorf("expected count 3, got %d", stats.Count)
	}
	if stats.MeanQuantity != 12 {
		t.Errorf("expected mean 12, got %g", stats.MeanQuantity)
	}
	if stats.MaxQuantity != 20 || stats.MinQuantity != 6 {
		t.Errorf("unexpected min/max %g/%g", stats.MinQuantity, stats.MaxQuantity)
	}
	if stats.DistinctStores != 2 || stats.DistinctTypes != 2 || stats.DistinctItems != 2 {
		t.Errorf("unexpected distinct counts %+v", stats)
	}
}

func TestMinimumStatisticsEmpty(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	stats, err := GetMinimumQuantityStatistics(ctx, database)
	if err != nil {
		t.Fatalf("GetMinimumQuantityStatistics: %v", err)
	}
	if *stats != (MinimumStatistics{}) {
		t.Errorf("expected zero stats for empty table, got %+v", stats)
	}
}

func TestDeleteMinimum(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	SetMinimumQuantity(ctx, database, 10, "EF-204", "rod", "Frantz")
	if err := DeleteMinimum(ctx, database, "EF-204", "rod"); err != nil {
		t.Fatalf("DeleteMinimum: %v", err)
	}

	m, _ := GetMinimum(ctx, database, "EF-204", "rod")
	if m != nil {
		t.Errorf("expected minimum deleted, got %+v", m)
	}
}

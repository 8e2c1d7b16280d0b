package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"

	"molten/internal/db"
	"molten/internal/model"
)

func newTestRecord(t *testing.T, ctx context.Context, database *sql.DB, qty float64) *model.InventoryRecord {
	t.Helper()
	item, err := CreateItem(ctx, database, model.Item{Manufacturer: "EF", SKU: "204", Name: "Dark Blue"})
	if err != nil {
		t.Fatalf("creating test item: %v", err)
	}
	record, err := CreateInventoryRecord(ctx, database, item.Key, model.ItemTypeRod, qty, "")
	if err != nil {
		t.Fatalf("creating test record: %v", err)
	}
	return record
}

func TestAddQuantityCreatesAndIncrements(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	entry, err := AddQuantity(ctx, database, 5, "shelf-a", record.ID)
	if err != nil {
		t.Fatalf("AddQuantity: %v", err)
	}
	if entry.Quantity != 5 {
		t.Errorf("expected quantity 5, got %g", entry.Quantity)
	}

	entry, err = AddQuantity(ctx, database, 3, "shelf-a", record.ID)
	if err != nil {
		t.Fatalf("AddQuantity: %v", err)
	}
	if entry.Quantity != 8 {
		t.Errorf("expected quantity 8 after increment, got %g", entry.Quantity)
	}

	// Record total follows additions.
	updated, _ := GetInventoryRecord(ctx, database, record.ID)
	if updated.TotalQuantity != 8 {
		t.Errorf("expected record total 8, got %g", updated.TotalQuantity)
	}
}

func TestAddQuantityRejectsNonPositive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	for _, qty := range []float64{0, -1} {
		_, err := AddQuantity(ctx, database, qty, "shelf-a", record.ID)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("qty=%g: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestSubtractQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 10, "shelf-a", record.ID)

	entry, err := SubtractQuantity(ctx, database, 4, "shelf-a", record.ID)
	if err != nil {
		t.Fatalf("SubtractQuantity: %v", err)
	}
	if entry == nil || entry.Quantity != 6 {
		t.Errorf("expected remaining 6, got %v", entry)
	}
}

func TestSubtractQuantityDrainRemovesEntry(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 5, "shelf-a", record.ID)

	entry, err := SubtractQuantity(ctx, database, 5, "shelf-a", record.ID)
	if err != nil {
		t.Fatalf("SubtractQuantity: %v", err)
	}
	if entry != nil {
		t.Errorf("expected drained entry removed, got %v", entry)
	}

	entries, _ := GetLocations(ctx, database, record.ID)
	if len(entries) != 0 {
		t.Errorf("expected no entries after drain, got %d", len(entries))
	}
}

func TestSubtractQuantityInsufficient(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 3, "shelf-a", record.ID)

	_, err := SubtractQuantity(ctx, database, 5, "shelf-a", record.ID)
	if !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("expected ErrInsufficientQuantity, got %v", err)
	}

	// Nothing changed.
	entry, _ := GetLocationEntry(ctx, database, record.ID, "shelf-a")
	if entry == nil || entry.Quantity != 3 {
		t.Errorf("expected shelf-a untouched at 3, got %v", entry)
	}
}

func TestSubtractQuantityMissingLocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	_, err := SubtractQuantity(ctx, database, 1, "nowhere", record.ID)
	if !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestMoveQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 10, "shelf-a", record.ID)

	if err := MoveQuantity(ctx, database, 4, "shelf-a", "shelf-b", record.ID); err != nil {
		t.Fatalf("MoveQuantity: %v", err)
	}

	a, _ := GetLocationEntry(ctx, database, record.ID, "shelf-a")
	b, _ := GetLocationEntry(ctx, database, record.ID, "shelf-b")
	if a == nil || a.Quantity != 6 {
		t.Errorf("expected shelf-a at 6, got %v", a)
	}
	if b == nil || b.Quantity != 4 {
		t.Errorf("expected shelf-b at 4, got %v", b)
	}

	// Moves don't change the record total.
	updated, _ := GetInventoryRecord(ctx, database, record.ID)
	if updated.TotalQuantity != 10 {
		t.Errorf("expected total 10 after move, got %g", updated.TotalQuantity)
	}
}

func TestMoveQuantityInsufficientLeavesBothUnchanged(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 3, "shelf-a", record.ID)
	AddQuantity(ctx, database, 2, "shelf-b", record.ID)

	err := MoveQuantity(ctx, database, 5, "shelf-a", "shelf-b", record.ID)
	if !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}

	a, _ := GetLocationEntry(ctx, database, record.ID, "shelf-a")
	b, _ := GetLocationEntry(ctx, database, record.ID, "shelf-b")
	if a == nil || a.Quantity != 3 {
		t.Errorf("expected shelf-a unchanged at 3, got %v", a)
	}
	if b == nil || b.Quantity != 2 {
		t.Errorf("expected shelf-b unchanged at 2, got %v", b)
	}
}

func TestMoveQuantitySameLocationIsNoop(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 5, "shelf-a", record.ID)

	if err := MoveQuantity(ctx, database, 3, "shelf-a", "shelf-a", record.ID); err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}

	entry, _ := GetLocationEntry(ctx, database, record.ID, "shelf-a")
	if entry == nil || entry.Quantity != 5 {
		t.Errorf("expected shelf-a unchanged at 5, got %v", entry)
	}
}

func TestMoveQuantityDrainsSource(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 5, "shelf-a", record.ID)

	if err := MoveQuantity(ctx, database, 5, "shelf-a", "shelf-b", record.ID); err != nil {
		t.Fatalf("MoveQuantity: %v", err)
	}

	a, _ := GetLocationEntry(ctx, database, record.ID, "shelf-a")
	if a != nil {
		t.Errorf("expected source entry removed, got %v", a)
	}
}

func TestConservationUnderMutationSequence(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 10, "shelf-a", record.ID)
	AddQuantity(ctx, database, 6, "shelf-b", record.ID)
	MoveQuantity(ctx, database, 2.5, "shelf-a", "shelf-c", record.ID)
	SubtractQuantity(ctx, database, 1.5, "shelf-b", record.ID)
	MoveQuantity(ctx, database, 4, "shelf-b", "shelf-a", record.ID)

	// Net: 10 + 6 - 1.5 = 14.5 across all locations.
	diff, err := GetLocationQuantityDiscrepancy(ctx, database, record.ID, 14.5)
	if err != nil {
		t.Fatalf("GetLocationQuantityDiscrepancy: %v", err)
	}
	if math.Abs(diff) > model.QuantityTolerance {
		t.Errorf("conservation violated, discrepancy %g", diff)
	}

	ok, err := ValidateLocationQuantities(ctx, database, record.ID, 14.5)
	if err != nil || !ok {
		t.Errorf("expected quantities to validate, ok=%v err=%v", ok, err)
	}

	// The record total tracked the same net.
	updated, _ := GetInventoryRecord(ctx, database, record.ID)
	if math.Abs(updated.TotalQuantity-14.5) > model.QuantityTolerance {
		t.Errorf("expected record total 14.5, got %g", updated.TotalQuantity)
	}
}

func TestSetLocations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 5, "old-shelf", record.ID)

	err := SetLocations(ctx, database, record.ID, []LocationQuantity{
		{Name: "shelf-a", Quantity: 3},
		{Name: "shelf-b", Quantity: 2},
		{Name: "shelf-c", Quantity: 0}, // dropped
	})
	if err != nil {
		t.Fatalf("SetLocations: %v", err)
	}

	entries, _ := GetLocations(ctx, database, record.ID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.LocationName == "old-shelf" {
			t.Error("expected old entries replaced")
		}
	}
}

func TestSetLocationsRejectsNegative(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 5, "shelf-a", record.ID)

	err := SetLocations(ctx, database, record.ID, []LocationQuantity{
		{Name: "shelf-b", Quantity: 3},
		{Name: "shelf-c", Quantity: -1},
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	// Nothing applied.
	entry, _ := GetLocationEntry(ctx, database, record.ID, "shelf-a")
	if entry == nil || entry.Quantity != 5 {
		t.Errorf("expected shelf-a unchanged, got %v", entry)
	}
}

func TestLocationNameNormalization(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 2, "  top   drawer ", record.ID)
	entry, _ := GetLocationEntry(ctx, database, record.ID, "top drawer")
	if entry == nil || entry.Quantity != 2 {
		t.Errorf("expected normalized name lookup to succeed, got %v", entry)
	}

	_, err := AddQuantity(ctx, database, 1, "   ", record.ID)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for blank name, got %v", err)
	}
}

func TestLocationDiscovery(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	r1 := newTestRecord(t, ctx, database, 0)

	item, _ := CreateItem(ctx, database, model.Item{Manufacturer: "NS", SKU: "021", Name: "Clear"})
	r2, _ := CreateInventoryRecord(ctx, database, item.Key, model.ItemTypeRod, 0, "")

	AddQuantity(ctx, database, 5, "shelf-a", r1.ID)
	AddQuantity(ctx, database, 3, "shelf-a", r2.ID)
	AddQuantity(ctx, database, 2, "bin-1", r2.ID)

	names, _ := GetDistinctLocationNames(ctx, database)
	if len(names) != 2 {
		t.Fatalf("expected 2 distinct names, got %v", names)
	}

	matches, _ := SearchLocationNames(ctx, database, "shelf")
	if len(matches) != 1 || matches[0] != "shelf-a" {
		t.Errorf("unexpected prefix search result %v", matches)
	}

	contents, _ := GetInventoriesInLocation(ctx, database, "shelf-a")
	if len(contents) != 2 {
		t.Errorf("expected 2 records in shelf-a, got %d", len(contents))
	}

	utilization, _ := GetLocationUtilization(ctx, database)
	if utilization["shelf-a"] != 8 || utilization["bin-1"] != 2 {
		t.Errorf("unexpected utilization %v", utilization)
	}

	counts, _ := GetLocationUsageCounts(ctx, database)
	if counts["shelf-a"] != 2 || counts["bin-1"] != 1 {
		t.Errorf("unexpected usage counts %v", counts)
	}
}

func TestFindOrphanedLocations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 5, "shelf-a", record.ID)

	// Delete the record out from under its entries, bypassing the cascade.
	if _, err := database.ExecContext(ctx,
		`DELETE FROM inventory_records WHERE id = ?`, record.ID,
	); err != nil {
		t.Fatalf("deleting record directly: %v", err)
	}

	orphans, err := FindOrphanedLocations(ctx, database)
	if err != nil {
		t.Fatalf("FindOrphanedLocations: %v", err)
	}
	if len(orphans) != 1 || orphans[0].InventoryID != record.ID {
		t.Errorf("expected 1 orphan for %s, got %v", record.ID, orphans)
	}
}

func TestMovementJournal(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	record := newTestRecord(t, ctx, database, 0)

	AddQuantity(ctx, database, 10, "shelf-a", record.ID)
	MoveQuantity(ctx, database, 4, "shelf-a", "shelf-b", record.ID)
	SubtractQuantity(ctx, database, 2, "shelf-b", record.ID)

	movements, err := ListMovements(ctx, database, record.ID)
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("expected 3 journal entries, got %d", len(movements))
	}
	// Newest first: the subtraction has a source but no destination.
	if movements[0].FromLocation != "shelf-b" || movements[0].ToLocation != "" {
		t.Errorf("unexpected newest movement %+v", movements[0])
	}
}

package store

import (
	"context"
	"errors"
	"testing"

	"molten/internal/db"
	"molten/internal/model"
	"molten/internal/search"
)

func TestCreateItemDerivesNaturalKey(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateItem(ctx, database, model.Item{
		Manufacturer: "EF",
		SKU:          "204",
		Name:         "Dark Blue",
		Type:         "Rod",
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Key != "EF-204" {
		t.Errorf("expected derived key EF-204, got %q", item.Key)
	}
	if item.Type != "rod" {
		t.Errorf("expected cleaned type rod, got %q", item.Type)
	}

	exists, _ := ItemExists(ctx, database, "EF-204")
	if !exists {
		t.Error("expected item to exist")
	}
	exists, _ = ItemExists(ctx, database, "EF-999")
	if exists {
		t.Error("expected missing key to not exist")
	}
}

func TestCreateItemRequiresFields(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateItem(ctx, database, model.Item{Manufacturer: "EF", SKU: "204"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing name, got %v", err)
	}
}

func TestCreateItemsBatchAtomic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	err := CreateItems(ctx, database, []model.Item{
		{Manufacturer: "EF", SKU: "204", Name: "Dark Blue"},
		{Manufacturer: "NS", SKU: "", Name: "Clear"}, // invalid
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	items, _ := ListItems(ctx, database, "")
	if len(items) != 0 {
		t.Errorf("expected no partial batch, got %d items", len(items))
	}
}

func TestGetItemMissing(t *testing.T) {
	database := db.NewTestDB(t)

	item, err := GetItem(context.Background(), database, "EF-204")
	if err != nil || item != nil {
		t.Errorf("expected nil, nil for missing item, got %v, %v", item, err)
	}
}

func TestSearchItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItems(ctx, database, []model.Item{
		{Manufacturer: "Effetre", SKU: "204", Name: "Intense Dark Blue", Notes: "dense opaque"},
		{Manufacturer: "Northstar", SKU: "021", Name: "Sky Blue", Notes: "transparent"},
		{Manufacturer: "CIM", SKU: "511", Name: "Hades", Notes: "opaque black"},
	})

	// Single term, OR across fields.
	results, err := SearchItems(ctx, database, search.Parse("blue"))
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 matches for blue, got %d", len(results))
	}

	// Multiple terms: AND across terms, each free to hit a different field.
	results, _ = SearchItems(ctx, database, search.Parse("blue opaque"))
	if len(results) != 1 || results[0].Name != "Intense Dark Blue" {
		t.Errorf("unexpected multi-term results %v", results)
	}

	// Exact phrase stays contiguous.
	results, _ = SearchItems(ctx, database, search.Parse(`"dark blue"`))
	if len(results) != 1 || results[0].Name != "Intense Dark Blue" {
		t.Errorf("unexpected phrase results %v", results)
	}

	// Empty text: caller gets the unfiltered list.
	results, _ = SearchItems(ctx, database, search.Parse("  "))
	if len(results) != 3 {
		t.Errorf("expected unfiltered list, got %d", len(results))
	}
}

func TestDeleteItemCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.Item{Manufacturer: "EF", SKU: "204", Name: "Dark Blue"})
	SetTags(ctx, database, []string{"blue"}, item.Key)
	SetMinimumQuantity(ctx, database, 10, item.Key, "rod", "Frantz")

	if err := DeleteItem(ctx, database, item.Key); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	tags, _ := GetTags(ctx, database, item.Key)
	if len(tags) != 0 {
		t.Errorf("expected tags cascaded, got %v", tags)
	}
	m, _ := GetMinimum(ctx, database, item.Key, "rod")
	if m != nil {
		t.Errorf("expected minimum cascaded, got %+v", m)
	}
}

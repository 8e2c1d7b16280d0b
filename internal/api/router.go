package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: db}
	tagsHandler := &TagsHandler{DB: db}
	recordsHandler := &RecordsHandler{DB: db}
	locationsHandler := &LocationsHandler{DB: db}
	minimumsHandler := &MinimumsHandler{DB: db}
	shoppingHandler := &ShoppingHandler{DB: db}
	adminHandler := &AdminHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret)
	protected := func(h http.HandlerFunc) http.Handler {
		return authMW(h)
	}

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("PUT /api/auth/password", protected(authHandler.ChangePassword))

	// Catalog items.
	mux.Handle("GET /api/items", protected(itemsHandler.List))
	mux.Handle("POST /api/items", protected(itemsHandler.Create))
	mux.Handle("POST /api/items/batch", protected(itemsHandler.CreateBatch))
	mux.Handle("GET /api/items/{key}", protected(itemsHandler.Get))
	mux.Handle("PUT /api/items/{key}", protected(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{key}", protected(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{key}/image", protected(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{key}/image", protected(itemsHandler.GetImage))
	mux.Handle("GET /api/items/{key}/thumbnail", protected(itemsHandler.GetThumbnail))

	// Tags on items.
	mux.Handle("GET /api/items/{key}/tags", protected(tagsHandler.GetForItem))
	mux.Handle("PUT /api/items/{key}/tags", protected(tagsHandler.SetForItem))
	mux.Handle("POST /api/items/{key}/tags", protected(tagsHandler.AddForItem))
	mux.Handle("DELETE /api/items/{key}/tags/{tag}", protected(tagsHandler.RemoveFromItem))

	// Tag discovery.
	mux.Handle("GET /api/tags", protected(tagsHandler.List))
	mux.Handle("GET /api/tags/counts", protected(tagsHandler.Counts))
	mux.Handle("GET /api/tags/popular", protected(tagsHandler.Popular))
	mux.Handle("GET /api/tags/items", protected(tagsHandler.Items))

	// Inventory records and the location ledger.
	mux.Handle("POST /api/records", protected(recordsHandler.Create))
	mux.Handle("GET /api/records", protected(recordsHandler.List))
	mux.Handle("GET /api/records/{id}", protected(recordsHandler.Get))
	mux.Handle("PUT /api/records/{id}/notes", protected(recordsHandler.UpdateNotes))
	mux.Handle("DELETE /api/records/{id}", protected(recordsHandler.Delete))
	mux.Handle("GET /api/records/{id}/validate", protected(recordsHandler.Validate))
	mux.Handle("GET /api/records/{id}/movements", protected(recordsHandler.Movements))
	mux.Handle("PUT /api/records/{id}/locations", protected(locationsHandler.Set))
	mux.Handle("POST /api/records/{id}/locations/add", protected(locationsHandler.Add))
	mux.Handle("POST /api/records/{id}/locations/subtract", protected(locationsHandler.Subtract))
	mux.Handle("POST /api/records/{id}/locations/move", protected(locationsHandler.Move))
	mux.Handle("GET /api/quantities", protected(recordsHandler.Quantities))

	// Location discovery.
	mux.Handle("GET /api/locations", protected(locationsHandler.List))
	mux.Handle("GET /api/locations/utilization", protected(locationsHandler.Utilization))
	mux.Handle("GET /api/locations/usage", protected(locationsHandler.Usage))
	mux.Handle("GET /api/locations/orphans", protected(locationsHandler.Orphans))
	mux.Handle("GET /api/locations/{name}/inventories", protected(locationsHandler.Contents))

	// Restock thresholds and stores.
	mux.Handle("PUT /api/minimums", protected(minimumsHandler.Set))
	mux.Handle("POST /api/minimums/batch", protected(minimumsHandler.CreateBatch))
	mux.Handle("GET /api/minimums", protected(minimumsHandler.List))
	mux.Handle("GET /api/minimums/statistics", protected(minimumsHandler.Statistics))
	mux.Handle("GET /api/minimums/{key}/{type}", protected(minimumsHandler.Get))
	mux.Handle("DELETE /api/minimums/{key}/{type}", protected(minimumsHandler.Delete))
	mux.Handle("GET /api/stores", protected(minimumsHandler.Stores))
	mux.Handle("GET /api/stores/utilization", protected(minimumsHandler.StoreUtilization))
	mux.Handle("PUT /api/stores/rename", protected(minimumsHandler.RenameStore))

	// Replenishment.
	mux.Handle("GET /api/shopping/list", protected(shoppingHandler.List))
	mux.Handle("GET /api/shopping/lists", protected(shoppingHandler.Lists))
	mux.Handle("GET /api/shopping/low-stock", protected(shoppingHandler.LowStock))

	// Maintenance.
	mux.Handle("POST /api/admin/migrate-keys", protected(adminHandler.MigrateKeys))

	return mux
}

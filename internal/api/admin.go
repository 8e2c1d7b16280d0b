package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"molten/internal/store"
)

// AdminHandler handles maintenance endpoints.
type AdminHandler struct {
	DB *sql.DB
}

type migrateKeysRequest struct {
	Mapping map[string]string `json:"mapping"`
}

// MigrateKeys handles POST /api/admin/migrate-keys. Rewrites legacy item
// identifiers to natural keys across records, minimums, and tags in one
// transaction.
func (h *AdminHandler) MigrateKeys(w http.ResponseWriter, r *http.Request) {
	var req migrateKeysRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Mapping) == 0 {
		jsonError(w, http.StatusBadRequest, "mapping required")
		return
	}

	migrated, err := store.MigrateLegacyKeys(r.Context(), h.DB, req.Mapping)
	if err != nil {
		storeError(w, err, "failed to migrate keys")
		return
	}

	slog.Info("legacy keys migrated", "rows", migrated, "keys", len(req.Mapping))
	jsonResponse(w, http.StatusOK, map[string]int64{"migrated": migrated})
}

package api

import (
	"database/sql"
	"net/http"

	"molten/internal/model"
	"molten/internal/store"
)

// MinimumsHandler handles restock threshold and store endpoints.
type MinimumsHandler struct {
	DB *sql.DB
}

type setMinimumRequest struct {
	ItemKey  string  `json:"item_key"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Store    string  `json:"store"`
}

type renameStoreRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func (req setMinimumRequest) toModel() model.ItemMinimum {
	return model.ItemMinimum{
		ItemKey:  req.ItemKey,
		Type:     req.Type,
		Quantity: req.Quantity,
		Store:    req.Store,
	}
}

// Set handles PUT /api/minimums. Creates or updates the threshold for the
// (item, type) pair.
func (h *MinimumsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setMinimumRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemKey == "" {
		jsonError(w, http.StatusBadRequest, "item_key required")
		return
	}

	minimum, err := store.SetMinimumQuantity(r.Context(), h.DB, req.Quantity, req.ItemKey, req.Type, req.Store)
	if err != nil {
		storeError(w, err, "failed to set minimum")
		return
	}

	jsonResponse(w, http.StatusOK, minimum)
}

// CreateBatch handles POST /api/minimums/batch. The whole batch is created
// atomically; one invalid entry rejects all of them.
func (h *MinimumsHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []setMinimumRequest
	if err := decodeJSON(r, &reqs); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(reqs) == 0 {
		jsonError(w, http.StatusBadRequest, "empty batch")
		return
	}

	minimums := make([]model.ItemMinimum, 0, len(reqs))
	for _, req := range reqs {
		minimums = append(minimums, req.toModel())
	}

	if err := store.CreateMinimums(r.Context(), h.DB, minimums); err != nil {
		storeError(w, err, "failed to create minimums")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]int{"created": len(minimums)})
}

// List handles GET /api/minimums. A store parameter filters by preferred
// store.
func (h *MinimumsHandler) List(w http.ResponseWriter, r *http.Request) {
	minimums, err := store.ListMinimums(r.Context(), h.DB, r.URL.Query().Get("store"))
	if err != nil {
		storeError(w, err, "failed to list minimums")
		return
	}
	if minimums == nil {
		minimums = []model.ItemMinimum{}
	}
	jsonResponse(w, http.StatusOK, minimums)
}

// Get handles GET /api/minimums/{key}/{type}.
func (h *MinimumsHandler) Get(w http.ResponseWriter, r *http.Request) {
	minimum, err := store.GetMinimum(r.Context(), h.DB, r.PathValue("key"), r.PathValue("type"))
	if err != nil {
		storeError(w, err, "failed to get minimum")
		return
	}
	if minimum == nil {
		jsonError(w, http.StatusNotFound, "minimum not found")
		return
	}
	jsonResponse(w, http.StatusOK, minimum)
}

// Delete handles DELETE /api/minimums/{key}/{type}.
func (h *MinimumsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteMinimum(r.Context(), h.DB, r.PathValue("key"), r.PathValue("type")); err != nil {
		storeError(w, err, "failed to delete minimum")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "minimum deleted"})
}

// Statistics handles GET /api/minimums/statistics.
func (h *MinimumsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetMinimumQuantityStatistics(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to get minimum statistics")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// Stores handles GET /api/stores. A prefix parameter narrows to matching
// store names.
func (h *MinimumsHandler) Stores(w http.ResponseWriter, r *http.Request) {
	var stores []string
	var err error

	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		stores, err = store.SearchStores(r.Context(), h.DB, prefix)
	} else {
		stores, err = store.GetDistinctStores(r.Context(), h.DB)
	}
	if err != nil {
		storeError(w, err, "failed to list stores")
		return
	}
	if stores == nil {
		stores = []string{}
	}
	jsonResponse(w, http.StatusOK, stores)
}

// StoreUtilization handles GET /api/stores/utilization. Returns the number
// of thresholds assigned to each store.
func (h *MinimumsHandler) StoreUtilization(w http.ResponseWriter, r *http.Request) {
	util, err := store.GetStoreUtilization(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to get store utilization")
		return
	}
	jsonResponse(w, http.StatusOK, util)
}

// RenameStore handles PUT /api/stores/rename. Moves every threshold from
// the old store name to the new one.
func (h *MinimumsHandler) RenameStore(w http.ResponseWriter, r *http.Request) {
	var req renameStoreRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := store.UpdateStoreName(r.Context(), h.DB, req.Old, req.New)
	if err != nil {
		storeError(w, err, "failed to rename store")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int64{"updated": updated})
}

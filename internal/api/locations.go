package api

import (
	"database/sql"
	"net/http"

	"molten/internal/metrics"
	"molten/internal/model"
	"molten/internal/store"
)

// LocationsHandler handles ledger and location discovery endpoints.
type LocationsHandler struct {
	DB *sql.DB
}

type quantityRequest struct {
	Quantity float64 `json:"quantity"`
	Location string  `json:"location"`
}

type moveRequest struct {
	Quantity float64 `json:"quantity"`
	From     string  `json:"from"`
	To       string  `json:"to"`
}

type setLocationsRequest struct {
	Locations []store.LocationQuantity `json:"locations"`
}

// Set handles PUT /api/records/{id}/locations. Replaces the record's
// whole location breakdown.
func (h *LocationsHandler) Set(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req setLocationsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.SetLocations(r.Context(), h.DB, id, req.Locations); err != nil {
		storeError(w, err, "failed to set locations")
		return
	}
	metrics.LedgerMutations.WithLabelValues("set").Inc()

	entries, _ := store.GetLocations(r.Context(), h.DB, id)
	if entries == nil {
		entries = []model.LocationEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Add handles POST /api/records/{id}/locations/add. Stock enters the
// ledger here, so the record's total grows with it.
func (h *LocationsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := store.AddQuantity(r.Context(), h.DB, req.Quantity, req.Location, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to add quantity")
		return
	}
	metrics.LedgerMutations.WithLabelValues("add").Inc()

	jsonResponse(w, http.StatusOK, entry)
}

// Subtract handles POST /api/records/{id}/locations/subtract. A drained
// entry is removed; the response body is then null.
func (h *LocationsHandler) Subtract(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := store.SubtractQuantity(r.Context(), h.DB, req.Quantity, req.Location, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to subtract quantity")
		return
	}
	metrics.LedgerMutations.WithLabelValues("subtract").Inc()

	jsonResponse(w, http.StatusOK, entry)
}

// Move handles POST /api/records/{id}/locations/move. Moves redistribute
// stock between locations without changing the record's total.
func (h *LocationsHandler) Move(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.MoveQuantity(r.Context(), h.DB, req.Quantity, req.From, req.To, id); err != nil {
		storeError(w, err, "failed to move quantity")
		return
	}
	metrics.LedgerMutations.WithLabelValues("move").Inc()

	entries, _ := store.GetLocations(r.Context(), h.DB, id)
	if entries == nil {
		entries = []model.LocationEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// List handles GET /api/locations. A prefix parameter narrows to matching
// location names.
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	var names []string
	var err error

	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		names, err = store.SearchLocationNames(r.Context(), h.DB, prefix)
	} else {
		names, err = store.GetDistinctLocationNames(r.Context(), h.DB)
	}
	if err != nil {
		storeError(w, err, "failed to list locations")
		return
	}
	if names == nil {
		names = []string{}
	}
	jsonResponse(w, http.StatusOK, names)
}

// Contents handles GET /api/locations/{name}/inventories.
func (h *LocationsHandler) Contents(w http.ResponseWriter, r *http.Request) {
	entries, err := store.GetInventoriesInLocation(r.Context(), h.DB, r.PathValue("name"))
	if err != nil {
		storeError(w, err, "failed to get location contents")
		return
	}
	if entries == nil {
		entries = []model.LocationEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Utilization handles GET /api/locations/utilization. Returns total
// quantity per location.
func (h *LocationsHandler) Utilization(w http.ResponseWriter, r *http.Request) {
	util, err := store.GetLocationUtilization(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to get location utilization")
		return
	}
	jsonResponse(w, http.StatusOK, util)
}

// Usage handles GET /api/locations/usage. Returns the number of records
// stored at each location.
func (h *LocationsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	counts, err := store.GetLocationUsageCounts(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to get location usage")
		return
	}
	jsonResponse(w, http.StatusOK, counts)
}

// Orphans handles GET /api/locations/orphans. Reports location entries
// whose inventory record no longer exists.
func (h *LocationsHandler) Orphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := store.FindOrphanedLocations(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to find orphaned locations")
		return
	}
	if orphans == nil {
		orphans = []model.LocationEntry{}
	}
	jsonResponse(w, http.StatusOK, orphans)
}

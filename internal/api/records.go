package api

import (
	"database/sql"
	"net/http"

	"molten/internal/model"
	"molten/internal/store"
)

// RecordsHandler handles inventory record endpoints.
type RecordsHandler struct {
	DB *sql.DB
}

type createRecordRequest struct {
	ItemKey  string  `json:"item_key"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Notes    string  `json:"notes"`
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

// Create handles POST /api/records.
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemKey == "" {
		jsonError(w, http.StatusBadRequest, "item_key required")
		return
	}

	record, err := store.CreateInventoryRecord(r.Context(), h.DB, req.ItemKey, req.Type, req.Quantity, req.Notes)
	if err != nil {
		storeError(w, err, "failed to create record")
		return
	}

	jsonResponse(w, http.StatusCreated, record)
}

// List handles GET /api/records. An item parameter filters by catalog key.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := store.ListInventoryRecords(r.Context(), h.DB, r.URL.Query().Get("item"))
	if err != nil {
		storeError(w, err, "failed to list records")
		return
	}
	if records == nil {
		records = []model.InventoryRecord{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// Get handles GET /api/records/{id}. The response includes the record's
// location breakdown.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := store.GetInventoryRecord(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get record")
		return
	}
	if record == nil {
		jsonError(w, http.StatusNotFound, "record not found")
		return
	}

	entries, err := store.GetLocations(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get record locations")
		return
	}
	if entries == nil {
		entries = []model.LocationEntry{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"record":    record,
		"locations": entries,
	})
}

// UpdateNotes handles PUT /api/records/{id}/notes.
func (h *RecordsHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateNotesRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateInventoryRecordNotes(r.Context(), h.DB, id, req.Notes); err != nil {
		storeError(w, err, "failed to update record")
		return
	}

	record, _ := store.GetInventoryRecord(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, record)
}

// Delete handles DELETE /api/records/{id}. Location entries for the record
// are removed with it.
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteInventoryRecord(r.Context(), h.DB, r.PathValue("id")); err != nil {
		storeError(w, err, "failed to delete record")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "record deleted"})
}

// Validate handles GET /api/records/{id}/validate. Reports whether the
// record's location entries sum to its total, and the signed discrepancy.
func (h *RecordsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := store.GetInventoryRecord(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get record")
		return
	}
	if record == nil {
		jsonError(w, http.StatusNotFound, "record not found")
		return
	}

	valid, err := store.ValidateLocationQuantities(r.Context(), h.DB, id, record.TotalQuantity)
	if err != nil {
		storeError(w, err, "failed to validate record")
		return
	}
	discrepancy, err := store.GetLocationQuantityDiscrepancy(r.Context(), h.DB, id, record.TotalQuantity)
	if err != nil {
		storeError(w, err, "failed to compute discrepancy")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"valid":       valid,
		"discrepancy": discrepancy,
	})
}

// Movements handles GET /api/records/{id}/movements.
func (h *RecordsHandler) Movements(w http.ResponseWriter, r *http.Request) {
	movements, err := store.ListMovements(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to list movements")
		return
	}
	if movements == nil {
		movements = []model.Movement{}
	}
	jsonResponse(w, http.StatusOK, movements)
}

// Quantities handles GET /api/quantities. Returns current on-hand stock
// summed across records and locations, keyed by item and type.
func (h *RecordsHandler) Quantities(w http.ResponseWriter, r *http.Request) {
	quantities, err := store.GetCurrentQuantities(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to get current quantities")
		return
	}
	jsonResponse(w, http.StatusOK, quantities)
}

package api

import (
	"database/sql"
	"net/http"

	"molten/internal/metrics"
	"molten/internal/shopping"
	"molten/internal/store"
)

// ShoppingHandler handles replenishment endpoints.
type ShoppingHandler struct {
	DB *sql.DB
}

// List handles GET /api/shopping/list. A store parameter limits the list
// to thresholds assigned to that store.
func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	storeName := r.URL.Query().Get("store")

	minimums, err := store.ListMinimums(r.Context(), h.DB, storeName)
	if err != nil {
		storeError(w, err, "failed to list minimums")
		return
	}
	current, err := store.GetCurrentQuantities(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to get current quantities")
		return
	}

	list := shopping.GenerateShoppingList(storeName, minimums, current)
	if list == nil {
		list = []shopping.ShoppingListItem{}
	}
	metrics.ShoppingListsGenerated.Inc()

	jsonResponse(w, http.StatusOK, list)
}

// Lists handles GET /api/shopping/lists. Returns one list per preferred
// store, with unassigned thresholds grouped under the empty key.
func (h *ShoppingHandler) Lists(w http.ResponseWriter, r *http.Request) {
	minimums, err := store.ListMinimums(r.Context(), h.DB, "")
	if err != nil {
		storeError(w, err, "failed to list minimums")
		return
	}
	current, err := store.GetCurrentQuantities(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to get current quantities")
		return
	}

	lists := shopping.GenerateShoppingLists(minimums, current)
	metrics.ShoppingListsGenerated.Inc()

	jsonResponse(w, http.StatusOK, lists)
}

// LowStock handles GET /api/shopping/low-stock.
func (h *ShoppingHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	minimums, err := store.ListMinimums(r.Context(), h.DB, "")
	if err != nil {
		storeError(w, err, "failed to list minimums")
		return
	}
	current, err := store.GetCurrentQuantities(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to get current quantities")
		return
	}

	low := shopping.GetLowStockItems(minimums, current)
	if low == nil {
		low = []shopping.LowStockItem{}
	}
	jsonResponse(w, http.StatusOK, low)
}

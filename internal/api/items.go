package api

import (
	"database/sql"
	"net/http"

	"molten/internal/imaging"
	"molten/internal/model"
	"molten/internal/search"
	"molten/internal/store"
)

// ItemsHandler handles catalog item endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Manufacturer string `json:"manufacturer"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	COE          string `json:"coe"`
	Notes        string `json:"notes"`
}

type updateItemRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	COE   string `json:"coe"`
	Notes string `json:"notes"`
}

func (req createItemRequest) toModel() model.Item {
	return model.Item{
		Manufacturer: req.Manufacturer,
		SKU:          req.SKU,
		Name:         req.Name,
		Type:         req.Type,
		COE:          req.COE,
		Notes:        req.Notes,
	}
}

// List handles GET /api/items. A q parameter runs a catalog search, a type
// parameter filters the plain listing.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	var items []model.Item
	var err error

	if q := r.URL.Query().Get("q"); q != "" {
		items, err = store.SearchItems(r.Context(), h.DB, search.Parse(q))
	} else {
		items, err = store.ListItems(r.Context(), h.DB, r.URL.Query().Get("type"))
	}
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.toModel())
	if err != nil {
		storeError(w, err, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// CreateBatch handles POST /api/items/batch. The whole batch is created
// atomically; one invalid entry rejects all of them.
func (h *ItemsHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []createItemRequest
	if err := decodeJSON(r, &reqs); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(reqs) == 0 {
		jsonError(w, http.StatusBadRequest, "empty batch")
		return
	}

	items := make([]model.Item, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, req.toModel())
	}

	if err := store.CreateItems(r.Context(), h.DB, items); err != nil {
		storeError(w, err, "failed to create items")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]int{"created": len(items)})
}

// Get handles GET /api/items/{key}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	item, err := store.GetItem(r.Context(), h.DB, key)
	if err != nil {
		storeError(w, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	tags, err := store.GetTags(r.Context(), h.DB, key)
	if err != nil {
		storeError(w, err, "failed to get item tags")
		return
	}
	if tags == nil {
		tags = []string{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item": item,
		"tags": tags,
	})
}

// Update handles PUT /api/items/{key}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, key, req.Name, req.Type, req.COE, req.Notes); err != nil {
		storeError(w, err, "failed to update item")
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, key)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{key}. Tags and minimums for the item
// are removed with it.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteItem(r.Context(), h.DB, r.PathValue("key")); err != nil {
		storeError(w, err, "failed to delete item")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{key}/image. Uploads are re-encoded
// and downscaled before storage.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, key, result.Data, result.MIME); err != nil {
		storeError(w, err, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{key}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), h.DB, r.PathValue("key"))
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// GetThumbnail handles GET /api/items/{key}/thumbnail.
func (h *ItemsHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	data, _, err := store.GetItemImage(r.Context(), h.DB, r.PathValue("key"))
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	thumb, err := imaging.Thumbnail(data)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate thumbnail")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(thumb)
}

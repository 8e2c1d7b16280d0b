package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"molten/internal/store"
)

// TagsHandler handles tag endpoints.
type TagsHandler struct {
	DB *sql.DB
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

// GetForItem handles GET /api/items/{key}/tags.
func (h *TagsHandler) GetForItem(w http.ResponseWriter, r *http.Request) {
	tags, err := store.GetTags(r.Context(), h.DB, r.PathValue("key"))
	if err != nil {
		storeError(w, err, "failed to get tags")
		return
	}
	if tags == nil {
		tags = []string{}
	}
	jsonResponse(w, http.StatusOK, tags)
}

// SetForItem handles PUT /api/items/{key}/tags. Replaces the item's whole
// tag set atomically.
func (h *TagsHandler) SetForItem(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req tagsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.SetTags(r.Context(), h.DB, req.Tags, key); err != nil {
		storeError(w, err, "failed to set tags")
		return
	}

	tags, _ := store.GetTags(r.Context(), h.DB, key)
	jsonResponse(w, http.StatusOK, tags)
}

// AddForItem handles POST /api/items/{key}/tags.
func (h *TagsHandler) AddForItem(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req tagsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.AddTags(r.Context(), h.DB, req.Tags, key); err != nil {
		storeError(w, err, "failed to add tags")
		return
	}

	tags, _ := store.GetTags(r.Context(), h.DB, key)
	jsonResponse(w, http.StatusOK, tags)
}

// RemoveFromItem handles DELETE /api/items/{key}/tags/{tag}.
func (h *TagsHandler) RemoveFromItem(w http.ResponseWriter, r *http.Request) {
	if err := store.RemoveTag(r.Context(), h.DB, r.PathValue("tag"), r.PathValue("key")); err != nil {
		storeError(w, err, "failed to remove tag")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "tag removed"})
}

// List handles GET /api/tags. A prefix parameter narrows to matching tags.
func (h *TagsHandler) List(w http.ResponseWriter, r *http.Request) {
	var tags []string
	var err error

	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		tags, err = store.SearchTags(r.Context(), h.DB, prefix)
	} else {
		tags, err = store.GetAllTags(r.Context(), h.DB)
	}
	if err != nil {
		storeError(w, err, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []string{}
	}
	jsonResponse(w, http.StatusOK, tags)
}

// Counts handles GET /api/tags/counts. A min parameter keeps only tags used
// at least that many times.
func (h *TagsHandler) Counts(w http.ResponseWriter, r *http.Request) {
	if minStr := r.URL.Query().Get("min"); minStr != "" {
		min, err := strconv.Atoi(minStr)
		if err != nil || min < 1 {
			jsonError(w, http.StatusBadRequest, "invalid min")
			return
		}
		counts, err := store.GetTagsWithCounts(r.Context(), h.DB, min)
		if err != nil {
			storeError(w, err, "failed to get tag counts")
			return
		}
		if counts == nil {
			counts = []store.TagCount{}
		}
		jsonResponse(w, http.StatusOK, counts)
		return
	}

	counts, err := store.GetTagUsageCounts(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to get tag counts")
		return
	}
	jsonResponse(w, http.StatusOK, counts)
}

// Popular handles GET /api/tags/popular.
func (h *TagsHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	top, err := store.GetMostUsedTags(r.Context(), h.DB, limit)
	if err != nil {
		storeError(w, err, "failed to get popular tags")
		return
	}
	if top == nil {
		top = []store.TagCount{}
	}
	jsonResponse(w, http.StatusOK, top)
}

// Items handles GET /api/tags/items. An all parameter requires every listed
// tag, an any parameter requires at least one. Tags are comma-separated.
func (h *TagsHandler) Items(w http.ResponseWriter, r *http.Request) {
	var keys []string
	var err error

	switch {
	case r.URL.Query().Get("all") != "":
		keys, err = store.ItemsWithAllTags(r.Context(), h.DB, splitTags(r.URL.Query().Get("all")))
	case r.URL.Query().Get("any") != "":
		keys, err = store.ItemsWithAnyTags(r.Context(), h.DB, splitTags(r.URL.Query().Get("any")))
	case r.URL.Query().Get("tag") != "":
		keys, err = store.ItemsWithTag(r.Context(), h.DB, r.URL.Query().Get("tag"))
	default:
		jsonError(w, http.StatusBadRequest, "one of tag, all, or any is required")
		return
	}
	if err != nil {
		storeError(w, err, "failed to query tagged items")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	jsonResponse(w, http.StatusOK, keys)
}

func splitTags(csv string) []string {
	parts := strings.Split(csv, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

package model

// ItemTag is one edge in the item/tag relation. Tags are stored normalized;
// the edge has no identity beyond the (item, tag) pair.
type ItemTag struct {
	ID      string `json:"id"`
	ItemKey string `json:"item_key"`
	Tag     string `json:"tag"`
}

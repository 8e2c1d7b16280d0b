// Package shopping computes purchase guidance from restock thresholds and
// live stock levels. Everything here is a pure computation over rows the
// store layer already loaded; missing stock data means zero on hand, never
// an error.
package shopping

import (
	"sort"

	"molten/internal/model"
)

// Priorities, from most to least urgent.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// priorityRank orders priorities for sorting. Higher is more urgent.
var priorityRank = map[string]int{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// Quantities maps item key, then type, to current stock on hand.
type Quantities map[string]map[string]float64

// Get returns the stock for an (item, type) pair, zero when absent.
func (q Quantities) Get(itemKey, itemType string) float64 {
	return q[itemKey][itemType]
}

// ShoppingListItem is one line of a shopping list.
type ShoppingListItem struct {
	ItemKey         string  `json:"item_key"`
	Type            string  `json:"type"`
	CurrentQuantity float64 `json:"current_quantity"`
	MinimumQuantity float64 `json:"minimum_quantity"`
	NeededQuantity  float64 `json:"needed_quantity"`
	Store           string  `json:"store"`
	Priority        string  `json:"priority"`
}

// LowStockItem is one line of a low-stock report.
type LowStockItem struct {
	ItemKey         string  `json:"item_key"`
	Type            string  `json:"type"`
	CurrentQuantity float64 `json:"current_quantity"`
	MinimumQuantity float64 `json:"minimum_quantity"`
	Shortfall       float64 `json:"shortfall"`
	Store           string  `json:"store"`
}

// DeficitRatio is the normalized shortage: (minimum - current) / minimum.
// A zero or negative minimum means no shortage can exist, so the ratio is 0.
func DeficitRatio(current, minimum float64) float64 {
	if minimum <= 0 {
		return 0
	}
	return (minimum - current) / minimum
}

// PriorityForRatio classifies a deficit ratio. Band edges are inclusive on
// the urgent side: a ratio of exactly 0.2 is already medium. A ratio of
// zero or less means the item is not below minimum and gets no priority.
func PriorityForRatio(ratio float64) string {
	switch {
	case ratio >= 0.8:
		return PriorityCritical
	case ratio >= 0.5:
		return PriorityHigh
	case ratio >= 0.2:
		return PriorityMedium
	case ratio > 0:
		return PriorityLow
	default:
		return ""
	}
}

// GenerateShoppingList builds the shopping list for one store: every
// threshold whose store matches and whose stock sits below minimum becomes
// a line, ordered by priority, then needed quantity descending, then item
// key for a stable output.
func GenerateShoppingList(storeName string, minimums []model.ItemMinimum, current Quantities) []ShoppingListItem {
	storeName = model.CleanStoreName(storeName)

	var list []ShoppingListItem
	for _, m := range minimums {
		if m.Store != storeName {
			continue
		}
		if line, ok := shoppingLine(m, current); ok {
			list = append(list, line)
		}
	}
	sortShoppingList(list)
	return list
}

// GenerateShoppingLists builds shopping lists for every store that appears
// on a threshold, keyed by store name. Thresholds with no preferred store
// group under the empty key.
func GenerateShoppingLists(minimums []model.ItemMinimum, current Quantities) map[string][]ShoppingListItem {
	lists := make(map[string][]ShoppingListItem)
	for _, m := range minimums {
		if line, ok := shoppingLine(m, current); ok {
			lists[m.Store] = append(lists[m.Store], line)
		}
	}
	for store := range lists {
		sortShoppingList(lists[store])
	}
	return lists
}

func shoppingLine(m model.ItemMinimum, current Quantities) (ShoppingListItem, bool) {
	onHand := current.Get(m.ItemKey, m.Type)
	needed := m.Quantity - onHand
	if needed <= model.QuantityTolerance {
		return ShoppingListItem{}, false
	}

	return ShoppingListItem{
		ItemKey:         m.ItemKey,
		Type:            m.Type,
		CurrentQuantity: onHand,
		MinimumQuantity: m.Quantity,
		NeededQuantity:  needed,
		Store:           m.Store,
		Priority:        PriorityForRatio(DeficitRatio(onHand, m.Quantity)),
	}, true
}

func sortShoppingList(list []ShoppingListItem) {
	sort.Slice(list, func(i, j int) bool {
		if priorityRank[list[i].Priority] != priorityRank[list[j].Priority] {
			return priorityRank[list[i].Priority] > priorityRank[list[j].Priority]
		}
		if list[i].NeededQuantity != list[j].NeededQuantity {
			return list[i].NeededQuantity > list[j].NeededQuantity
		}
		return list[i].ItemKey < list[j].ItemKey
	})
}

// GetLowStockItems returns every threshold whose stock sits below minimum,
// across all stores, as a flat report sorted by shortfall descending.
func GetLowStockItems(minimums []model.ItemMinimum, current Quantities) []LowStockItem {
	var low []LowStockItem
	for _, m := range minimums {
		onHand := current.Get(m.ItemKey, m.Type)
		shortfall := m.Quantity - onHand
		if shortfall <= model.QuantityTolerance {
			continue
		}
		low = append(low, LowStockItem{
			ItemKey:         m.ItemKey,
			Type:            m.Type,
			CurrentQuantity: onHand,
			MinimumQuantity: m.Quantity,
			Shortfall:       shortfall,
			Store:           m.Store,
		})
	}
	sort.Slice(low, func(i, j int) bool {
		if low[i].Shortfall != low[j].Shortfall {
			return low[i].Shortfall > low[j].Shortfall
		}
		return low[i].ItemKey < low[j].ItemKey
	})
	return low
}

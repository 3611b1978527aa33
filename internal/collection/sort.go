package collection

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"scentara/internal/model"
)

// SortKey selects the ordering for an in-memory item list.
type SortKey string

const (
	SortRecentlyAdded SortKey = "recently_added"
	SortByBrand       SortKey = "brand"
	SortByName        SortKey = "name"
)

// SortItems returns a sorted copy of items. Name and brand comparisons are
// locale-aware; a nil brand sorts as the empty string, and a missing
// timestamp sorts oldest. Ties keep their input order.
func SortItems(items []model.CollectionItem, key SortKey) []model.CollectionItem {
	sorted := make([]model.CollectionItem, len(items))
	copy(sorted, items)

	coll := collate.New(language.English)

	switch key {
	case SortByName:
		sort.SliceStable(sorted, func(i, j int) bool {
			return coll.CompareString(sorted[i].PerfumeName, sorted[j].PerfumeName) < 0
		})
	case SortByBrand:
		sort.SliceStable(sorted, func(i, j int) bool {
			return coll.CompareString(brandOf(sorted[i]), brandOf(sorted[j])) < 0
		})
	case SortRecentlyAdded:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	}
	return sorted
}

func brandOf(item model.CollectionItem) string {
	if item.PerfumeBrand == nil {
		return ""
	}
	return *item.PerfumeBrand
}

package catalog

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// Item is one material a supplier can deliver.
type Item struct {
	Supplier         string          `json:"supplier"`
	Reference        string          `json:"reference"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	UnitPriceExclTax decimal.Decimal `json:"unit_price_excl_tax"`
}

// Provider serves supplier catalogs. Catalog contents are owned elsewhere.
type Provider interface {
	Suppliers(ctx context.Context) ([]string, error)
	Items(ctx context.Context, supplier string) ([]Item, error)
}

// Categories returns the distinct categories of items, in first-seen order.
func Categories(items []Item) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, it := range items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	return out
}

// InCategory filters items to one category.
func InCategory(items []Item, category string) []Item {
	out := make([]Item, 0)
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Index answers description lookups across suppliers.
type Index struct {
	byKey map[indexKey]Item
}

type indexKey struct {
	supplier, category, description string
}

func NewIndex(items []Item) *Index {
	idx := &Index{byKey: make(map[indexKey]Item, len(items))}
	for _, it := range items {
		k := indexKey{it.Supplier, it.Category, it.Description}
		if _, ok := idx.byKey[k]; !ok {
			idx.byKey[k] = it
		}
	}
	return idx
}

// Find returns the item matching supplier, category and description.
func (idx *Index) Find(supplier, category, description string) (Item, bool) {
	if idx == nil {
		return Item{}, false
	}
	it, ok := idx.byKey[indexKey{supplier, category, description}]
	return it, ok
}

// SortItems orders by supplier, category, then reference.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Supplier != items[j].Supplier {
			return items[i].Supplier < items[j].Supplier
		}
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Reference < items[j].Reference
	})
}

// Descriptions lists the designations available in a category.
func Descriptions(items []Item, category string) []string {
	out := make([]string, 0)
	for _, it := range InCategory(items, category) {
		out = append(out, it.Description)
	}
	return out
}

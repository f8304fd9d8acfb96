package proposal

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"leasing-backend/internal/catalog"
	"leasing-backend/internal/money"

	"github.com/shopspring/decimal"
)

type ItemKind string

const (
	KindEquipment ItemKind = "equipment"
	KindComponent ItemKind = "component"
)

// DefaultTaxRate is the VAT rate pre-filled on new lines.
var DefaultTaxRate = decimal.NewFromInt(18)

var (
	ErrUnknownItem      = errors.New("unknown line item")
	ErrParentNotFound   = errors.New("component parent not found")
	ErrParentNotMachine = errors.New("components can only be attached to equipment")
	ErrUnknownField     = errors.New("unknown line item field")
)

// LineItem is a financed material line. PriceInclTax and LineTotal are derived.
type LineItem struct {
	ID                 int             `json:"id"`
	Kind               ItemKind        `json:"kind"`
	ParentID           *int            `json:"parent_id,omitempty"`
	Supplier           string          `json:"supplier"`
	Reference          string          `json:"reference"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	UnitPriceExclTax   decimal.Decimal `json:"unit_price_excl_tax"`
	TaxRatePercent     decimal.Decimal `json:"tax_rate_percent"`
	Quantity           decimal.Decimal `json:"quantity"`
	PriceInclTax       decimal.Decimal `json:"price_incl_tax"`
	LineTotal          decimal.Decimal `json:"line_total"`
	RegistrationNumber string          `json:"registration_number,omitempty"`
	RegistrationDate   *time.Time      `json:"registration_date,omitempty"`
	InServiceDate      *time.Time      `json:"in_service_date,omitempty"`
}

func (it *LineItem) recompute() {
	it.PriceInclTax = it.UnitPriceExclTax.Add(it.UnitPriceExclTax.Mul(it.TaxRatePercent).Div(money.Hundred)).Round(2)
	it.LineTotal = it.PriceInclTax.Mul(it.Quantity).Round(2)
}

// Field names accepted by LineItems.Update.
type Field string

const (
	FieldSupplier           Field = "supplier"
	FieldCategory           Field = "category"
	FieldDescription        Field = "description"
	FieldReference          Field = "reference"
	FieldUnitPrice          Field = "unit_price_excl_tax"
	FieldTaxRate            Field = "tax_rate_percent"
	FieldQuantity           Field = "quantity"
	FieldRegistrationNumber Field = "registration_number"
)

// Matcher resolves a catalog entry for description auto-fill.
type Matcher interface {
	Find(supplier, category, description string) (catalog.Item, bool)
}

// LineItems is the material list of one proposal. Items are indexed by id and
// components are tracked through a parent -> children adjacency map.
type LineItems struct {
	items    map[int]*LineItem
	children map[int][]int
	order    []int
	lastID   int
}

func NewLineItems() *LineItems {
	return &LineItems{
		items:    make(map[int]*LineItem),
		children: make(map[int][]int),
	}
}

// LineItemsFrom rebuilds a collection from submitted lines. Derived amounts
// are recomputed; component parents must exist and be equipment. Amounts
// outside money.MaxScale are rejected.
func LineItemsFrom(lines []LineItem) (*LineItems, error) {
	li := NewLineItems()
	for _, l := range lines {
		if l.ID <= 0 {
			return nil, fmt.Errorf("line item id must be positive, got %d", l.ID)
		}
		if _, dup := li.items[l.ID]; dup {
			return nil, fmt.Errorf("duplicate line item id %d", l.ID)
		}
		item := l
		if item.Kind == "" {
			item.Kind = KindEquipment
		}
		if item.Kind != KindEquipment && item.Kind != KindComponent {
			return nil, fmt.Errorf("line item %d: unknown kind %q", l.ID, l.Kind)
		}
		for _, d := range []decimal.Decimal{item.UnitPriceExclTax, item.TaxRatePercent, item.Quantity} {
			if err := money.CheckScale(d); err != nil {
				return nil, fmt.Errorf("line item %d: %w", l.ID, err)
			}
		}
		if !item.Quantity.IsPositive() {
			item.Quantity = decimal.NewFromInt(1)
		}
		li.items[item.ID] = &item
		li.order = append(li.order, item.ID)
		if item.ID > li.lastID {
			li.lastID = item.ID
		}
	}

	for _, id := range li.order {
		item := li.items[id]
		if item.Kind == KindEquipment {
			item.ParentID = nil
		} else {
			if item.ParentID == nil {
				return nil, fmt.Errorf("line item %d: %w", id, ErrParentNotFound)
			}
			parent, ok := li.items[*item.ParentID]
			if !ok {
				return nil, fmt.Errorf("line item %d: %w", id, ErrParentNotFound)
			}
			if parent.Kind != KindEquipment {
				return nil, fmt.Errorf("line item %d: %w", id, ErrParentNotMachine)
			}
			li.children[parent.ID] = append(li.children[parent.ID], id)
		}
		item.recompute()
	}
	return li, nil
}

func (li *LineItems) newItem(kind ItemKind, parentID *int, supplier string) *LineItem {
	li.lastID++
	item := &LineItem{
		ID:             li.lastID,
		Kind:           kind,
		ParentID:       parentID,
		Supplier:       supplier,
		TaxRatePercent: DefaultTaxRate,
		Quantity:       decimal.NewFromInt(1),
	}
	item.recompute()
	li.items[item.ID] = item
	li.order = append(li.order, item.ID)
	return item
}

// AddEquipment appends a top-level equipment line.
func (li *LineItems) AddEquipment(supplier string) LineItem {
	return *li.newItem(KindEquipment, nil, supplier)
}

// AddComponent attaches a component to an equipment line; it inherits the supplier.
func (li *LineItems) AddComponent(parentID int) (LineItem, error) {
	parent, ok := li.items[parentID]
	if !ok {
		return LineItem{}, ErrParentNotFound
	}
	if parent.Kind != KindEquipment {
		return LineItem{}, ErrParentNotMachine
	}
	pid := parentID
	item := li.newItem(KindComponent, &pid, parent.Supplier)
	li.children[parentID] = append(li.children[parentID], item.ID)
	return *item, nil
}

// Update sets one field and re-derives dependent fields. Resets cascade
// supplier -> category -> description/reference/price, then amounts are
// recomputed.
func (li *LineItems) Update(id int, field Field, value string, m Matcher) (LineItem, error) {
	item, ok := li.items[id]
	if !ok {
		return LineItem{}, ErrUnknownItem
	}

	switch field {
	case FieldSupplier:
		item.Supplier = value
		item.clearCategory()
	case FieldCategory:
		item.Category = value
		item.clearDesignation()
	case FieldDescription:
		item.Description = value
		if m != nil && item.Kind == KindEquipment && item.Supplier != "" && item.Category != "" {
			if match, found := m.Find(item.Supplier, item.Category, value); found {
				item.Reference = match.Reference
				item.UnitPriceExclTax = match.UnitPriceExclTax
			}
		}
	case FieldReference:
		item.Reference = value
	case FieldUnitPrice:
		item.UnitPriceExclTax = money.ParseAmount(value)
	case FieldTaxRate:
		item.TaxRatePercent = money.ParseAmount(value)
	case FieldQuantity:
		item.Quantity = parseQuantity(value)
	case FieldRegistrationNumber:
		item.RegistrationNumber = value
	default:
		return LineItem{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	item.recompute()
	return *item, nil
}

func (it *LineItem) clearCategory() {
	it.Category = ""
	it.clearDesignation()
}

func (it *LineItem) clearDesignation() {
	it.Description = ""
	it.Reference = ""
	it.UnitPriceExclTax = decimal.Zero
}

// Remove deletes the item and all of its descendants. It returns the removed ids.
func (li *LineItems) Remove(id int) ([]int, error) {
	if _, ok := li.items[id]; !ok {
		return nil, ErrUnknownItem
	}

	removed := []int{}
	stack := []int{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		removed = append(removed, cur)
		stack = append(stack, li.children[cur]...)
	}

	gone := make(map[int]bool, len(removed))
	for _, rid := range removed {
		gone[rid] = true
		if it := li.items[rid]; it != nil && it.ParentID != nil {
			li.detach(*it.ParentID, rid)
		}
		delete(li.items, rid)
		delete(li.children, rid)
	}

	kept := li.order[:0]
	for _, oid := range li.order {
		if !gone[oid] {
			kept = append(kept, oid)
		}
	}
	li.order = kept

	sort.Ints(removed)
	return removed, nil
}

func (li *LineItems) detach(parentID, childID int) {
	kids := li.children[parentID]
	for i, k := range kids {
		if k == childID {
			li.children[parentID] = append(kids[:i], kids[i+1:]...)
			return
		}
	}
}

func (li *LineItems) Get(id int) (LineItem, bool) {
	it, ok := li.items[id]
	if !ok {
		return LineItem{}, false
	}
	return *it, true
}

// Children returns the direct components of an item.
func (li *LineItems) Children(id int) []LineItem {
	out := make([]LineItem, 0, len(li.children[id]))
	for _, cid := range li.children[id] {
		out = append(out, *li.items[cid])
	}
	return out
}

// Items returns copies in insertion order.
func (li *LineItems) Items() []LineItem {
	out := make([]LineItem, 0, len(li.order))
	for _, id := range li.order {
		out = append(out, *li.items[id])
	}
	return out
}

func (li *LineItems) Len() int { return len(li.order) }

// Suppliers lists the distinct suppliers used, in first-seen order.
func (li *LineItems) Suppliers() []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, id := range li.order {
		s := li.items[id].Supplier
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

type Totals struct {
	TotalExclTax  decimal.Decimal `json:"total_excl_tax"`
	TotalInclTax  decimal.Decimal `json:"total_incl_tax"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

func (li *LineItems) Totals() Totals {
	t := Totals{
		TotalExclTax:  decimal.Zero,
		TotalInclTax:  decimal.Zero,
		TotalQuantity: decimal.Zero,
	}
	for _, id := range li.order {
		it := li.items[id]
		t.TotalExclTax = t.TotalExclTax.Add(it.UnitPriceExclTax.Mul(it.Quantity))
		t.TotalInclTax = t.TotalInclTax.Add(it.LineTotal)
		t.TotalQuantity = t.TotalQuantity.Add(it.Quantity)
	}
	t.TotalExclTax = t.TotalExclTax.Round(2)
	return t
}

package inventory

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/vbonduro/pantry/internal/domain"
	"github.com/vbonduro/pantry/internal/ident"
)

// Ledger owns the pantry items. It knows nothing about storage areas beyond
// the id each item carries; area existence is checked by the caller.
type Ledger struct {
	items []domain.PantryItem
	newID ident.Generator
	now   func() time.Time
}

// NewLedger builds a ledger from previously persisted items. Records with a
// quantity below one are dropped.
func NewLedger(items []domain.PantryItem, newID ident.Generator, now func() time.Time) *Ledger {
	kept := make([]domain.PantryItem, 0, len(items))
	for _, item := range items {
		if item.Quantity >= 1 {
			kept = append(kept, item)
		}
	}
	return &Ledger{items: kept, newID: newID, now: now}
}

// Items returns a copy of all items in insertion order.
func (l *Ledger) Items() []domain.PantryItem {
	return slices.Clone(l.items)
}

func (l *Ledger) Len() int {
	return len(l.items)
}

func (l *Ledger) Get(id string) (domain.PantryItem, bool) {
	i := l.index(id)
	if i < 0 {
		return domain.PantryItem{}, false
	}
	return l.items[i], true
}

// AddItem merges quantity into an unopened item with the same area,
// case-insensitive name and expiry date, or creates a new unopened item.
func (l *Ledger) AddItem(name string, quantity int, areaID string, expiry *domain.Date) (domain.PantryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.PantryItem{}, fmt.Errorf("item name required: %w", domain.ErrValidation)
	}
	if quantity < 1 {
		return domain.PantryItem{}, fmt.Errorf("quantity %d below 1: %w", quantity, domain.ErrValidation)
	}

	key := mergeKeyOf(areaID, name, expiry)
	for i := range l.items {
		if l.items[i].IsOpened || mergeKeyOf(l.items[i].StorageAreaID, l.items[i].Name, l.items[i].ExpiryDate) != key {
			continue
		}
		if quantity > math.MaxInt-l.items[i].Quantity {
			return domain.PantryItem{}, fmt.Errorf("merged quantity overflows: %w", domain.ErrValidation)
		}
		l.items[i].Quantity += quantity
		return l.items[i], nil
	}

	item := domain.PantryItem{
		ID:            l.newID(),
		Name:          name,
		Quantity:      quantity,
		StorageAreaID: areaID,
		CreatedAt:     l.now(),
		ExpiryDate:    copyDate(expiry),
	}
	l.items = append(l.items, item)
	return item, nil
}

// UpdateQuantity sets an item's quantity. A quantity below one removes the
// item, in which case the returned item is nil.
func (l *Ledger) UpdateQuantity(id string, quantity int) (*domain.PantryItem, error) {
	i := l.index(id)
	if i < 0 {
		return nil, fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}
	if quantity < 1 {
		l.items = slices.Delete(l.items, i, i+1)
		return nil, nil
	}
	l.items[i].Quantity = quantity
	item := l.items[i]
	return &item, nil
}

func (l *Ledger) Remove(id string) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}
	l.items = slices.Delete(l.items, i, i+1)
	return nil
}

// RemoveArea removes every item stored in the area and reports how many
// were removed.
func (l *Ledger) RemoveArea(areaID string) int {
	before := len(l.items)
	l.items = slices.DeleteFunc(l.items, func(item domain.PantryItem) bool {
		return item.StorageAreaID == areaID
	})
	return before - len(l.items)
}

// Open marks quantity units of an item as opened. Opening the whole item
// flips it in place and returns it alone. Opening part of it splits off a new
// opened item and returns the unopened remainder followed by the new item.
// Opened items get a shortened expiry date (see OpenedExpiry). An item that
// is already opened cannot be opened again.
func (l *Ledger) Open(id string, quantity int) ([]domain.PantryItem, error) {
	i := l.index(id)
	if i < 0 {
		return nil, fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}
	item := l.items[i]
	if item.IsOpened {
		return nil, fmt.Errorf("item %q: %w", id, domain.ErrAlreadyOpened)
	}
	if quantity < 1 || quantity > item.Quantity {
		return nil, fmt.Errorf("open %d of %d: %w", quantity, item.Quantity, domain.ErrQuantityOutOfRange)
	}

	now := l.now()
	openedAt := now
	var expiry *domain.Date
	if item.ExpiryDate != nil {
		shortened := OpenedExpiry(*item.ExpiryDate, domain.DateOf(now))
		expiry = &shortened
	}

	if quantity == item.Quantity {
		l.items[i].IsOpened = true
		l.items[i].OpenedAt = &openedAt
		l.items[i].ExpiryDate = expiry
		return []domain.PantryItem{l.items[i]}, nil
	}

	l.items[i].Quantity -= quantity
	opened := domain.PantryItem{
		ID:            l.newID(),
		Name:          item.Name,
		Quantity:      quantity,
		StorageAreaID: item.StorageAreaID,
		CreatedAt:     item.CreatedAt,
		IsOpened:      true,
		OpenedAt:      &openedAt,
		ExpiryDate:    expiry,
	}
	l.items = append(l.items, opened)
	return []domain.PantryItem{l.items[i], opened}, nil
}

// ForArea returns the items stored in an area ordered by name.
func (l *Ledger) ForArea(areaID string) []domain.PantryItem {
	var items []domain.PantryItem
	for _, item := range l.items {
		if item.StorageAreaID == areaID {
			items = append(items, item)
		}
	}
	sortByName(items)
	return items
}

// TotalQuantity sums the quantities of the items stored in an area.
func (l *Ledger) TotalQuantity(areaID string) int {
	total := 0
	for _, item := range l.items {
		if item.StorageAreaID == areaID {
			total += item.Quantity
		}
	}
	return total
}

// Search returns items whose name contains query, ignoring case, ordered by
// name. An empty query matches nothing.
func (l *Ledger) Search(query string) []domain.PantryItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var items []domain.PantryItem
	for _, item := range l.items {
		if strings.Contains(strings.ToLower(item.Name), query) {
			items = append(items, item)
		}
	}
	sortByName(items)
	return items
}

// ExpiringBy returns items with an expiry date on or before the cutoff,
// soonest first.
func (l *Ledger) ExpiringBy(cutoff domain.Date) []domain.PantryItem {
	var items []domain.PantryItem
	for _, item := range l.items {
		if item.ExpiryDate != nil && !item.ExpiryDate.After(cutoff) {
			items = append(items, item)
		}
	}
	slices.SortStableFunc(items, func(a, b domain.PantryItem) int {
		return b.ExpiryDate.DaysUntil(*a.ExpiryDate)
	})
	return items
}

func (l *Ledger) index(id string) int {
	return slices.IndexFunc(l.items, func(item domain.PantryItem) bool {
		return item.ID == id
	})
}

type mergeKey struct {
	areaID    string
	name      string
	hasExpiry bool
	expiry    domain.Date
}

func mergeKeyOf(areaID, name string, expiry *domain.Date) mergeKey {
	key := mergeKey{areaID: areaID, name: strings.ToLower(strings.TrimSpace(name))}
	if expiry != nil {
		key.hasExpiry = true
		key.expiry = *expiry
	}
	return key
}

func sortByName(items []domain.PantryItem) {
	slices.SortStableFunc(items, func(a, b domain.PantryItem) int {
		return strings.Compare(a.Name, b.Name)
	})
}

func copyDate(d *domain.Date) *domain.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

package inventory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vbonduro/pantry/internal/domain"
)

// Registry owns the storage areas and their display order. The order values
// of the held areas are always exactly 0..n-1.
type Registry struct {
	areas []domain.StorageArea
}

// NewRegistry builds a registry from previously persisted areas. Areas are
// sorted by their stored order and renumbered, so gaps or duplicates left by
// an older writer are closed on load.
func NewRegistry(areas []domain.StorageArea) *Registry {
	sorted := slices.Clone(areas)
	slices.SortStableFunc(sorted, func(a, b domain.StorageArea) int {
		return a.Order - b.Order
	})
	r := &Registry{areas: sorted}
	r.renumber()
	return r
}

// Areas returns a copy of the areas in display order.
func (r *Registry) Areas() []domain.StorageArea {
	return slices.Clone(r.areas)
}

func (r *Registry) Len() int {
	return len(r.areas)
}

func (r *Registry) Get(id string) (domain.StorageArea, bool) {
	i := r.index(id)
	if i < 0 {
		return domain.StorageArea{}, false
	}
	return r.areas[i], true
}

func (r *Registry) Contains(id string) bool {
	return r.index(id) >= 0
}

// Add appends a new area at the end of the display order. An empty icon or
// color falls back to the package icon and slate color.
func (r *Registry) Add(id, name string, icon domain.Icon, color domain.Color) (domain.StorageArea, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.StorageArea{}, fmt.Errorf("area name required: %w", domain.ErrValidation)
	}
	if id == "" || r.Contains(id) {
		return domain.StorageArea{}, fmt.Errorf("area id %q unavailable: %w", id, domain.ErrValidation)
	}
	if icon == "" {
		icon = domain.IconPackage
	}
	if color == "" {
		color = domain.ColorSlate
	}

	area := domain.StorageArea{ID: id, Order: len(r.areas)}
	area, err := domain.ApplyAreaUpdates(area,
		domain.SetAreaName(name), domain.SetAreaIcon(icon), domain.SetAreaColor(color))
	if err != nil {
		return domain.StorageArea{}, err
	}

	r.areas = append(r.areas, area)
	return area, nil
}

// Update applies the given field updates to an area. Order is not
// changeable through this path; use Reorder.
func (r *Registry) Update(id string, updates ...domain.AreaUpdate) (domain.StorageArea, error) {
	i := r.index(id)
	if i < 0 {
		return domain.StorageArea{}, fmt.Errorf("area %q: %w", id, domain.ErrNotFound)
	}
	updated, err := domain.ApplyAreaUpdates(r.areas[i], updates...)
	if err != nil {
		return domain.StorageArea{}, err
	}
	r.areas[i] = updated
	return updated, nil
}

// Delete removes an area and closes the gap it leaves in the order. It does
// not touch items; the caller cascades.
func (r *Registry) Delete(id string) error {
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("area %q: %w", id, domain.ErrNotFound)
	}
	r.areas = slices.Delete(r.areas, i, i+1)
	r.renumber()
	return nil
}

// Reorder assigns order = position in ids. Unknown and repeated ids are
// ignored. Areas missing from ids keep their relative order after the listed
// ones, so membership never changes.
func (r *Registry) Reorder(ids []string) []domain.StorageArea {
	reordered := make([]domain.StorageArea, 0, len(r.areas))
	placed := make(map[string]bool, len(r.areas))

	for _, id := range ids {
		if placed[id] {
			continue
		}
		if area, ok := r.Get(id); ok {
			reordered = append(reordered, area)
			placed[id] = true
		}
	}
	for _, area := range r.areas {
		if !placed[area.ID] {
			reordered = append(reordered, area)
		}
	}

	r.areas = reordered
	r.renumber()
	return r.Areas()
}

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.areas, func(a domain.StorageArea) bool {
		return a.ID == id
	})
}

func (r *Registry) renumber() {
	for i := range r.areas {
		r.areas[i].Order = i
	}
}

package store

import (
	"context"
	"database/sql"

	"github.com/vbonduro/pantry/internal/db"
	"github.com/vbonduro/pantry/internal/domain"
)

// Repository persists the inventory to a SQL database. Each save replaces
// one whole collection.
type Repository struct {
	areas *AreaStore
	items *ItemStore
}

func NewRepository(d *sql.DB, dialect db.Dialect) *Repository {
	return &Repository{
		areas: NewAreaStore(d, dialect),
		items: NewItemStore(d, dialect),
	}
}

func (r *Repository) LoadAll(ctx context.Context) ([]domain.StorageArea, []domain.PantryItem, error) {
	areas, err := r.areas.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := r.items.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return areas, items, nil
}

func (r *Repository) SaveAreas(ctx context.Context, areas []domain.StorageArea) error {
	return r.areas.ReplaceAll(ctx, areas)
}

func (r *Repository) SaveItems(ctx context.Context, items []domain.PantryItem) error {
	return r.items.ReplaceAll(ctx, items)
}

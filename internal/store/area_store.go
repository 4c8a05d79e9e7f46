package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/pantry/internal/db"
	"github.com/vbonduro/pantry/internal/domain"
)

type AreaStore struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewAreaStore(d *sql.DB, dialect db.Dialect) *AreaStore {
	return &AreaStore{db: d, dialect: dialect}
}

// List returns every storage area in display order.
func (s *AreaStore) List(ctx context.Context) ([]domain.StorageArea, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, icon, color, sort_order FROM storage_areas ORDER BY sort_order ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var areas []domain.StorageArea
	for rows.Next() {
		var area domain.StorageArea
		if err := rows.Scan(&area.ID, &area.Name, &area.Icon, &area.Color, &area.Order); err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		areas = append(areas, area)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating areas: %w", err)
	}

	return areas, nil
}

// ReplaceAll swaps the stored areas for the given collection in one
// transaction.
func (s *AreaStore) ReplaceAll(ctx context.Context, areas []domain.StorageArea) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM storage_areas`); err != nil {
			return fmt.Errorf("failed to clear areas: %w", err)
		}
		insert := rebind(s.dialect, `
			INSERT INTO storage_areas (id, name, icon, color, sort_order) VALUES (?, ?, ?, ?, ?)
		`)
		for _, area := range areas {
			if _, err := tx.ExecContext(ctx, insert,
				area.ID, area.Name, string(area.Icon), string(area.Color), area.Order); err != nil {
				return fmt.Errorf("failed to insert area %q: %w", area.ID, err)
			}
		}
		return nil
	})
}

func inTx(ctx context.Context, d *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			slog.Error("failed to roll back transaction", "error", rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/pantry/internal/db"
	"github.com/vbonduro/pantry/internal/domain"
)

type ItemStore struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewItemStore(d *sql.DB, dialect db.Dialect) *ItemStore {
	return &ItemStore{db: d, dialect: dialect}
}

// List returns every item in the order it was saved.
func (s *ItemStore) List(ctx context.Context) ([]domain.PantryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, quantity, storage_area_id, created_at, is_opened, opened_at, expiry_date
		FROM pantry_items ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []domain.PantryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// ReplaceAll swaps the stored items for the given collection in one
// transaction.
func (s *ItemStore) ReplaceAll(ctx context.Context, items []domain.PantryItem) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pantry_items`); err != nil {
			return fmt.Errorf("failed to clear items: %w", err)
		}
		insert := rebind(s.dialect, `
			INSERT INTO pantry_items
				(id, name, quantity, storage_area_id, created_at, is_opened, opened_at, expiry_date, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		for i, item := range items {
			if _, err := tx.ExecContext(ctx, insert,
				item.ID, item.Name, item.Quantity, item.StorageAreaID,
				formatTime(item.CreatedAt), item.IsOpened, nullTime(item.OpenedAt), nullDate(item.ExpiryDate), i,
			); err != nil {
				return fmt.Errorf("failed to insert item %q: %w", item.ID, err)
			}
		}
		return nil
	})
}

func scanItem(rows *sql.Rows) (domain.PantryItem, error) {
	var (
		item      domain.PantryItem
		createdAt string
		openedAt  sql.NullString
		expiry    sql.NullString
	)
	if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.StorageAreaID,
		&createdAt, &item.IsOpened, &openedAt, &expiry); err != nil {
		return item, fmt.Errorf("failed to scan item: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return item, fmt.Errorf("failed to parse created_at of item %q: %w", item.ID, err)
	}
	item.CreatedAt = t

	if openedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, openedAt.String)
		if err != nil {
			return item, fmt.Errorf("failed to parse opened_at of item %q: %w", item.ID, err)
		}
		item.OpenedAt = &t
	}

	if expiry.Valid {
		d, err := domain.ParseDate(expiry.String)
		if err != nil {
			return item, fmt.Errorf("failed to parse expiry_date of item %q: %w", item.ID, err)
		}
		item.ExpiryDate = &d
	}

	return item, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullDate(d *domain.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vbonduro/pantry/internal/domain"
	"github.com/vbonduro/pantry/internal/ident"
	"github.com/vbonduro/pantry/internal/inventory"
	"github.com/vbonduro/pantry/internal/metrics"
	"github.com/vbonduro/pantry/internal/vision"
)

// ErrVisionUnavailable is returned by ImportPhoto when no vision analyzer is
// configured.
var ErrVisionUnavailable = errors.New("photo import is not configured")

const defaultPersistTimeout = 5 * time.Second

// Persistence is the durable side of the inventory. store.Repository and
// snapshot.S3Store satisfy it.
type Persistence interface {
	LoadAll(ctx context.Context) ([]domain.StorageArea, []domain.PantryItem, error)
	SaveAreas(ctx context.Context, areas []domain.StorageArea) error
	SaveItems(ctx context.Context, items []domain.PantryItem) error
}

// collection marks which side of the inventory a mutation touched.
type collection uint8

const (
	areasCollection collection = 1 << iota
	itemsCollection
)

type Option func(*InventoryService)

func WithVision(v vision.VisionAnalyzer) Option {
	return func(s *InventoryService) { s.vision = v }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *InventoryService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *InventoryService) { s.now = now }
}

func WithIDGenerator(gen ident.Generator) Option {
	return func(s *InventoryService) { s.newID = gen }
}

// WithPersistTimeout bounds each write-through save.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *InventoryService) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *InventoryService) { s.tracer = t }
}

// InventoryService is the single source of truth for storage areas and
// pantry items. Memory is authoritative; every successful mutation is written
// through to the persistence collaborator while the write lock is held, and a
// failed write is logged rather than rolled back.
type InventoryService struct {
	mu     sync.RWMutex
	loaded bool
	areas  *inventory.Registry
	items  *inventory.Ledger

	persist        Persistence
	vision         vision.VisionAnalyzer
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	logger         *slog.Logger
	newID          ident.Generator
	now            func() time.Time
	persistTimeout time.Duration
}

func NewInventoryService(persist Persistence, logger *slog.Logger, opts ...Option) *InventoryService {
	s := &InventoryService{
		persist:        persist,
		logger:         logger,
		tracer:         otel.Tracer("github.com/vbonduro/pantry/internal/service"),
		newID:          ident.UUID,
		now:            time.Now,
		persistTimeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.areas = inventory.NewRegistry(nil)
	s.items = inventory.NewLedger(nil, s.newID, s.now)
	return s
}

// Load replaces the in-memory state with the persisted one. An empty area
// collection is seeded with the default areas, which are saved immediately.
// Until Load succeeds every mutation returns domain.ErrLoading.
func (s *InventoryService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	areas, items, err := s.persist.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}

	seeded := len(areas) == 0
	if seeded {
		areas = domain.DefaultAreas()
	}
	s.areas = inventory.NewRegistry(areas)

	kept := make([]domain.PantryItem, 0, len(items))
	for _, item := range items {
		if !s.areas.Contains(item.StorageAreaID) {
			s.logger.Warn("dropping item with unknown storage area",
				"item_id", item.ID, "storage_area_id", item.StorageAreaID)
			continue
		}
		kept = append(kept, item)
	}
	s.items = inventory.NewLedger(kept, s.newID, s.now)

	if seeded {
		s.logger.Info("seeding default storage areas", "count", s.areas.Len())
		s.writeThrough(ctx, areasCollection)
	}

	s.loaded = true
	s.metrics.SetSizes(s.areas.Len(), s.items.Len())
	s.logger.Info("inventory loaded", "areas", s.areas.Len(), "items", s.items.Len())
	return nil
}

func (s *InventoryService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *InventoryService) ListAreas() []domain.StorageArea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.areas.Areas()
}

func (s *InventoryService) ListItems() []domain.PantryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Items()
}

// ItemsForArea returns the area's items ordered by name.
func (s *InventoryService) ItemsForArea(areaID string) ([]domain.PantryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.areas.Contains(areaID) {
		return nil, fmt.Errorf("area %q: %w", areaID, domain.ErrNotFound)
	}
	return s.items.ForArea(areaID), nil
}

// ItemCountForArea returns the total quantity held in the area.
func (s *InventoryService) ItemCountForArea(areaID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.areas.Contains(areaID) {
		return 0, fmt.Errorf("area %q: %w", areaID, domain.ErrNotFound)
	}
	return s.items.TotalQuantity(areaID), nil
}

// AreaContents returns the area's items and their total quantity from one
// consistent view of the inventory.
func (s *InventoryService) AreaContents(areaID string) ([]domain.PantryItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.areas.Contains(areaID) {
		return nil, 0, fmt.Errorf("area %q: %w", areaID, domain.ErrNotFound)
	}
	return s.items.ForArea(areaID), s.items.TotalQuantity(areaID), nil
}

func (s *InventoryService) SearchItems(query string) []domain.PantryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Search(query)
}

// ExpiringItems returns items whose expiry date falls no later than
// withinDays from today, soonest first. Expired items are included.
func (s *InventoryService) ExpiringItems(withinDays int) ([]domain.PantryItem, error) {
	if withinDays < 0 {
		return nil, fmt.Errorf("negative window %d: %w", withinDays, domain.ErrValidation)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := domain.DateOf(s.now()).AddDays(withinDays)
	return s.items.ExpiringBy(cutoff), nil
}

func (s *InventoryService) AddArea(ctx context.Context, name string, icon domain.Icon, color domain.Color) (domain.StorageArea, error) {
	var area domain.StorageArea
	err := s.mutate(ctx, "add_area", func() (collection, error) {
		var err error
		area, err = s.areas.Add(s.newID(), name, icon, color)
		return areasCollection, err
	})
	return area, err
}

func (s *InventoryService) UpdateArea(ctx context.Context, id string, updates ...domain.AreaUpdate) (domain.StorageArea, error) {
	var area domain.StorageArea
	err := s.mutate(ctx, "update_area", func() (collection, error) {
		var err error
		area, err = s.areas.Update(id, updates...)
		return areasCollection, err
	})
	return area, err
}

// DeleteArea removes the area and every item stored in it as one step.
func (s *InventoryService) DeleteArea(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_area", func() (collection, error) {
		if err := s.areas.Delete(id); err != nil {
			return 0, err
		}
		removed := s.items.RemoveArea(id)
		s.logger.Debug("storage area deleted", "storage_area_id", id, "items_removed", removed)
		if removed == 0 {
			return areasCollection, nil
		}
		return areasCollection | itemsCollection, nil
	})
}

func (s *InventoryService) ReorderAreas(ctx context.Context, ids []string) ([]domain.StorageArea, error) {
	var areas []domain.StorageArea
	err := s.mutate(ctx, "reorder_areas", func() (collection, error) {
		areas = s.areas.Reorder(ids)
		return areasCollection, nil
	})
	return areas, err
}

// AddItem merges into a matching unopened item or creates a new one. The
// area must exist.
func (s *InventoryService) AddItem(ctx context.Context, name string, quantity int, areaID string, expiry *domain.Date) (domain.PantryItem, error) {
	var item domain.PantryItem
	err := s.mutate(ctx, "add_item", func() (collection, error) {
		if !s.areas.Contains(areaID) {
			return 0, fmt.Errorf("area %q: %w", areaID, domain.ErrInvalidReference)
		}
		var err error
		item, err = s.items.AddItem(name, quantity, areaID, expiry)
		return itemsCollection, err
	})
	return item, err
}

// UpdateItemQuantity sets an item's quantity. A quantity below one removes
// the item, in which case the returned item is nil.
func (s *InventoryService) UpdateItemQuantity(ctx context.Context, id string, quantity int) (*domain.PantryItem, error) {
	var item *domain.PantryItem
	err := s.mutate(ctx, "update_item_quantity", func() (collection, error) {
		var err error
		item, err = s.items.UpdateQuantity(id, quantity)
		return itemsCollection, err
	})
	return item, err
}

func (s *InventoryService) RemoveItem(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove_item", func() (collection, error) {
		return itemsCollection, s.items.Remove(id)
	})
}

// OpenItem opens quantity units of an item. Opening everything flips the
// item in place; opening part of it splits off a new opened item. The
// affected records are returned, remainder first.
func (s *InventoryService) OpenItem(ctx context.Context, id string, quantity int) ([]domain.PantryItem, error) {
	var items []domain.PantryItem
	err := s.mutate(ctx, "open_item", func() (collection, error) {
		var err error
		items, err = s.items.Open(id, quantity)
		return itemsCollection, err
	})
	return items, err
}

// ImportPhoto runs the vision analyzer over an image of the area and adds
// each detected item through the regular merge-on-add path. The analysis
// runs without holding the lock.
func (s *InventoryService) ImportPhoto(ctx context.Context, areaID string, image []byte, mimeType string) ([]domain.PantryItem, error) {
	if s.vision == nil {
		return nil, ErrVisionUnavailable
	}
	// Fail fast before paying for a model call; mutate re-checks both.
	if !s.Ready() {
		return nil, domain.ErrLoading
	}
	s.mu.RLock()
	exists := s.areas.Contains(areaID)
	s.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("area %q: %w", areaID, domain.ErrInvalidReference)
	}

	s.logger.Info("vision analysis started", "storage_area_id", areaID, "mime_type", mimeType, "bytes", len(image))
	result, err := s.vision.Analyze(ctx, bytes.NewReader(image), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}
	s.logger.Info("vision analysis complete", "storage_area_id", areaID, "items_detected", len(result.Items))

	var added []domain.PantryItem
	err = s.mutate(ctx, "import_photo", func() (collection, error) {
		if !s.areas.Contains(areaID) {
			return 0, fmt.Errorf("area %q: %w", areaID, domain.ErrInvalidReference)
		}
		for _, detected := range result.Items {
			item, err := s.items.AddItem(detected.Name, detected.Count(), areaID, nil)
			if err != nil {
				s.logger.Error("failed to add detected item", "name", detected.Name, "error", err)
				continue
			}
			added = append(added, item)
		}
		if len(added) == 0 {
			return 0, nil
		}
		return itemsCollection, nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// mutate runs fn under the write lock and writes through the collections it
// reports as changed.
func (s *InventoryService) mutate(ctx context.Context, op string, fn func() (collection, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.metrics.ObserveMutation(op, "loading")
		return domain.ErrLoading
	}

	dirty, err := fn()
	if err != nil {
		s.metrics.ObserveMutation(op, errorClass(err))
		return err
	}
	s.metrics.ObserveMutation(op, "ok")
	s.metrics.SetSizes(s.areas.Len(), s.items.Len())

	s.writeThrough(ctx, dirty)
	return nil
}

// writeThrough saves items before areas. The caller's cancellation does not
// abort the save.
func (s *InventoryService) writeThrough(ctx context.Context, dirty collection) {
	ctx = context.WithoutCancel(ctx)
	if dirty&itemsCollection != 0 {
		items := s.items.Items()
		s.save(ctx, "items", func(ctx context.Context) error {
			return s.persist.SaveItems(ctx, items)
		})
	}
	if dirty&areasCollection != 0 {
		areas := s.areas.Areas()
		s.save(ctx, "storage_areas", func(ctx context.Context) error {
			return s.persist.SaveAreas(ctx, areas)
		})
	}
}

func (s *InventoryService) save(ctx context.Context, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "inventory.persist",
		trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.metrics.PersistenceFailed(name)
		s.logger.Error("failed to persist collection", "collection", name, "error", err)
		return
	}
	s.logger.Debug("collection persisted", "collection", name)
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, domain.ErrQuantityOutOfRange):
		return "out_of_range"
	case errors.Is(err, domain.ErrAlreadyOpened):
		return "already_opened"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

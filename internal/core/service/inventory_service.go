package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/24f2006233/vyappar-smart/internal/core/domain"
	"github.com/24f2006233/vyappar-smart/internal/port"
	"github.com/24f2006233/vyappar-smart/pkg/logger"
)

// InventoryService owns the inventory collection. Every mutation is a full
// load, modify, store cycle under mu.
type InventoryService struct {
	mu    sync.Mutex
	store port.CollectionStore
	now   func() time.Time
	newID func() string
}

func NewInventoryService(store port.CollectionStore, opts ...Option) *InventoryService {
	o := buildOptions(opts)
	return &InventoryService{
		store: store,
		now:   o.now,
		newID: o.newID,
	}
}

// List returns items in persisted order.
func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "InventoryService.List")
	defer span.End()

	items, err := s.store.LoadInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return items, nil
}

func (s *InventoryService) Get(ctx context.Context, id string) (domain.InventoryItem, bool, error) {
	items, err := s.List(ctx)
	if err != nil {
		return domain.InventoryItem{}, false, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, true, nil
		}
	}
	return domain.InventoryItem{}, false, nil
}

func (s *InventoryService) Add(ctx context.Context, name string, quantity int, price decimal.Decimal) (domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "InventoryService.Add")
	defer span.End()

	if err := domain.ValidateItemName(name); err != nil {
		return domain.InventoryItem{}, err
	}
	if err := domain.ValidateItemQuantity(quantity); err != nil {
		return domain.InventoryItem{}, err
	}
	if err := domain.ValidateItemPrice(price); err != nil {
		return domain.InventoryItem{}, err
	}

	item := domain.InventoryItem{
		ID:        s.newID(),
		Name:      strings.TrimSpace(name),
		Quantity:  quantity,
		Price:     price,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.LoadInventory(ctx)
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("load inventory: %w", err)
	}
	if err := s.store.SaveInventory(ctx, append(items, item)); err != nil {
		return domain.InventoryItem{}, fmt.Errorf("save inventory: %w", err)
	}

	logger.Info(ctx, "inventory item added", "item_id", item.ID, "name", item.Name, "quantity", item.Quantity)
	return item, nil
}

// Update merges patch into the item with the given id. An unknown id is not an error.
func (s *InventoryService) Update(ctx context.Context, id string, patch domain.ItemPatch) error {
	ctx, span := tracer.Start(ctx, "InventoryService.Update")
	defer span.End()

	if err := patch.Validate(); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	return s.mutate(ctx, id, func(item *domain.InventoryItem) {
		patch.Apply(item)
	})
}

// Delete removes the item if present.
func (s *InventoryService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "InventoryService.Delete")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.LoadInventory(ctx)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}

	idx := slices.IndexFunc(items, func(i domain.InventoryItem) bool { return i.ID == id })
	if idx < 0 {
		return nil
	}
	if err := s.store.SaveInventory(ctx, slices.Delete(items, idx, idx+1)); err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}

	logger.Info(ctx, "inventory item deleted", "item_id", id)
	return nil
}

// ReduceQuantity sets quantity to max(0, quantity-amount). Overselling clamps
// instead of failing. Negative amounts are rejected; zero and unknown ids are no-ops.
func (s *InventoryService) ReduceQuantity(ctx context.Context, id string, amount int) error {
	ctx, span := tracer.Start(ctx, "InventoryService.ReduceQuantity")
	defer span.End()

	if err := domain.ValidateReduceAmount(amount); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}

	return s.mutate(ctx, id, func(item *domain.InventoryItem) {
		if amount > item.Quantity {
			logger.Warn(ctx, "stock reduction clamped at zero",
				"item_id", item.ID, "quantity", item.Quantity, "amount", amount)
		}
		item.Reduce(amount)
	})
}

func (s *InventoryService) mutate(ctx context.Context, id string, fn func(*domain.InventoryItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.LoadInventory(ctx)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}

	idx := slices.IndexFunc(items, func(i domain.InventoryItem) bool { return i.ID == id })
	if idx < 0 {
		return nil
	}
	fn(&items[idx])

	if err := s.store.SaveInventory(ctx, items); err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	return nil
}

// SortItemsNewestFirst orders items by CreatedAt, newest first.
func SortItemsNewestFirst(items []domain.InventoryItem) {
	slices.SortStableFunc(items, func(a, b domain.InventoryItem) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
}

// SortInvoicesNewestFirst orders invoices by CreatedAt, newest first.
func SortInvoicesNewestFirst(invoices []domain.Invoice) {
	slices.SortStableFunc(invoices, func(a, b domain.Invoice) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
}

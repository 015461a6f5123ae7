package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/24f2006233/vyappar-smart/internal/core/domain"
	"github.com/24f2006233/vyappar-smart/internal/port"
	"github.com/24f2006233/vyappar-smart/pkg/logger"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockNotDeducted  = errors.New("invoice recorded but stock not deducted")
)

// Inventory is the part of the inventory repository invoices depend on.
type Inventory interface {
	List(ctx context.Context) ([]domain.InventoryItem, error)
	ReduceQuantity(ctx context.Context, id string, amount int) error
}

// InvoiceService owns the invoice collection.
//
// Creating an invoice writes two collections one after the other: the
// invoice is recorded first, then stock is deducted. There is no rollback
// between the two. A failure in between leaves a recorded invoice whose
// stock was never taken, and Create reports it with ErrStockNotDeducted.
type InvoiceService struct {
	mu        sync.Mutex
	store     port.CollectionStore
	inventory Inventory
	publisher port.EventPublisher
	now       func() time.Time
	newID     func() string
}

func NewInvoiceService(store port.CollectionStore, inventory Inventory, opts ...Option) *InvoiceService {
	o := buildOptions(opts)
	return &InvoiceService{
		store:     store,
		inventory: inventory,
		publisher: o.publisher,
		now:       o.now,
		newID:     o.newID,
	}
}

func (s *InvoiceService) List(ctx context.Context) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.List")
	defer span.End()

	invoices, err := s.store.LoadInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	return invoices, nil
}

// CheckStock verifies against a fresh inventory read that every requested
// quantity is available. Lines for the same item are summed. Create does not
// call it; callers do, before Create.
func (s *InvoiceService) CheckStock(ctx context.Context, lines []domain.LineRequest) error {
	ctx, span := tracer.Start(ctx, "InvoiceService.CheckStock")
	defer span.End()

	items, err := s.inventory.List(ctx)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	byID := indexItems(items)

	requested := make(map[string]int, len(lines))
	var order []string
	for i, l := range lines {
		if _, ok := byID[l.ItemID]; !ok {
			return domain.NewValidationError(fmt.Sprintf("items[%d].itemId", i), "item not found")
		}
		if _, seen := requested[l.ItemID]; !seen {
			order = append(order, l.ItemID)
		}
		requested[l.ItemID] += l.Quantity
	}

	for _, id := range order {
		item := byID[id]
		if requested[id] > item.Quantity {
			return fmt.Errorf("%w: %s: requested %d, available %d",
				ErrInsufficientStock, item.Name, requested[id], item.Quantity)
		}
	}
	return nil
}

// Prepare builds an invoice from the current inventory without writing
// anything. Names and prices are snapshotted into the lines.
func (s *InvoiceService) Prepare(ctx context.Context, customerName string, lines []domain.LineRequest) (domain.Invoice, error) {
	if err := domain.ValidateInvoiceRequest(customerName, lines); err != nil {
		return domain.Invoice{}, err
	}

	items, err := s.inventory.List(ctx)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("load inventory: %w", err)
	}
	byID := indexItems(items)

	invoiceLines := make([]domain.InvoiceLine, 0, len(lines))
	for i, l := range lines {
		item, ok := byID[l.ItemID]
		if !ok {
			return domain.Invoice{}, domain.NewValidationError(fmt.Sprintf("items[%d].itemId", i), "item not found")
		}
		invoiceLines = append(invoiceLines, domain.NewInvoiceLine(item, l.Quantity))
	}

	return domain.Invoice{
		ID:           s.newID(),
		CustomerName: strings.TrimSpace(customerName),
		Items:        invoiceLines,
		Total:        domain.SumLines(invoiceLines),
		CreatedAt:    s.now(),
	}, nil
}

// Record appends inv to the invoice collection. This is the first write of Create.
func (s *InvoiceService) Record(ctx context.Context, inv domain.Invoice) error {
	ctx, span := tracer.Start(ctx, "InvoiceService.Record")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	invoices, err := s.store.LoadInvoices(ctx)
	if err != nil {
		return fmt.Errorf("load invoices: %w", err)
	}
	if err := s.store.SaveInvoices(ctx, append(invoices, inv)); err != nil {
		return fmt.Errorf("save invoices: %w", err)
	}
	return nil
}

// Deduct reduces stock for every line of inv. This is the second write of Create.
func (s *InvoiceService) Deduct(ctx context.Context, inv domain.Invoice) error {
	ctx, span := tracer.Start(ctx, "InvoiceService.Deduct")
	defer span.End()

	for _, l := range inv.Items {
		if err := s.inventory.ReduceQuantity(ctx, l.ItemID, l.Quantity); err != nil {
			return fmt.Errorf("reduce %s by %d: %w", l.ItemID, l.Quantity, err)
		}
	}
	return nil
}

// Create prepares, records and deducts an invoice. It does not check stock
// sufficiency; quantities clamp at zero.
func (s *InvoiceService) Create(ctx context.Context, customerName string, lines []domain.LineRequest) (domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.Create")
	defer span.End()

	inv, err := s.Prepare(ctx, customerName, lines)
	if err != nil {
		return domain.Invoice{}, err
	}

	if err := s.Record(ctx, inv); err != nil {
		return domain.Invoice{}, err
	}

	if err := s.Deduct(ctx, inv); err != nil {
		logger.Error(ctx, "CRITICAL invoice recorded without stock deduction",
			"invoice_id", inv.ID, "error", err)
		return inv, fmt.Errorf("%w: invoice %s: %w", ErrStockNotDeducted, inv.ID, err)
	}

	logger.Info(ctx, "invoice created",
		"invoice_id", inv.ID, "customer", inv.CustomerName, "total", inv.Total.String(), "lines", len(inv.Items))

	s.publish(ctx, inv.ID, domain.InvoiceEvent{
		Type:         domain.EventInvoiceCreated,
		InvoiceID:    inv.ID,
		CustomerName: inv.CustomerName,
		Total:        inv.Total.String(),
		LineCount:    len(inv.Items),
		OccurredAt:   s.now(),
	})
	return inv, nil
}

// Delete removes the invoice if present. Consumed stock is not restored.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "InvoiceService.Delete")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	invoices, err := s.store.LoadInvoices(ctx)
	if err != nil {
		return fmt.Errorf("load invoices: %w", err)
	}

	idx := slices.IndexFunc(invoices, func(inv domain.Invoice) bool { return inv.ID == id })
	if idx < 0 {
		return nil
	}
	if err := s.store.SaveInvoices(ctx, slices.Delete(invoices, idx, idx+1)); err != nil {
		return fmt.Errorf("save invoices: %w", err)
	}

	logger.Info(ctx, "invoice deleted", "invoice_id", id)
	s.publish(ctx, id, domain.InvoiceEvent{
		Type:       domain.EventInvoiceDeleted,
		InvoiceID:  id,
		OccurredAt: s.now(),
	})
	return nil
}

func (s *InvoiceService) publish(ctx context.Context, key string, event domain.InvoiceEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		logger.Warn(ctx, "failed to publish invoice event", "type", event.Type, "invoice_id", key, "error", err)
	}
}

func indexItems(items []domain.InventoryItem) map[string]domain.InventoryItem {
	byID := make(map[string]domain.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID
}

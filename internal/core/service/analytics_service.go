package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/24f2006233/vyappar-smart/internal/core/domain"
)

const week = 7 * 24 * time.Hour

type InvoiceLister interface {
	List(ctx context.Context) ([]domain.Invoice, error)
}

type InventoryLister interface {
	List(ctx context.Context) ([]domain.InventoryItem, error)
}

// TopProduct is the item with the most units sold across all invoices.
type TopProduct struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Summary gathers every analytics figure computed from one read of both collections.
type Summary struct {
	TodaySales     decimal.Decimal        `json:"todaySales"`
	ThisMonthSales decimal.Decimal        `json:"thisMonthSales"`
	ThisWeekSales  decimal.Decimal        `json:"thisWeekSales"`
	LastWeekSales  decimal.Decimal        `json:"lastWeekSales"`
	TopProduct     *TopProduct            `json:"topProduct,omitempty"`
	LowStock       []domain.InventoryItem `json:"lowStock"`
	InvoiceCount   int                    `json:"invoiceCount"`
	ItemCount      int                    `json:"itemCount"`
	GeneratedAt    time.Time              `json:"generatedAt"`
}

// AnalyticsService derives sales figures by rescanning both collections on
// every call. It never writes.
type AnalyticsService struct {
	inventory InventoryLister
	invoices  InvoiceLister
	now       func() time.Time
	location  *time.Location
}

func NewAnalyticsService(inventory InventoryLister, invoices InvoiceLister, opts ...Option) *AnalyticsService {
	o := buildOptions(opts)
	return &AnalyticsService{
		inventory: inventory,
		invoices:  invoices,
		now:       o.now,
		location:  o.location,
	}
}

func (s *AnalyticsService) TodaySales(ctx context.Context) (decimal.Decimal, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load invoices: %w", err)
	}
	return salesOnDay(invoices, s.now().In(s.location)), nil
}

func (s *AnalyticsService) ThisMonthSales(ctx context.Context) (decimal.Decimal, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load invoices: %w", err)
	}
	return salesInMonth(invoices, s.now().In(s.location)), nil
}

// ThisWeekSales sums invoices in the rolling window [now-7d, now).
func (s *AnalyticsService) ThisWeekSales(ctx context.Context) (decimal.Decimal, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load invoices: %w", err)
	}
	now := s.now()
	return salesBetween(invoices, now.Add(-week), now), nil
}

// LastWeekSales sums invoices in the rolling window [now-14d, now-7d).
func (s *AnalyticsService) LastWeekSales(ctx context.Context) (decimal.Decimal, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load invoices: %w", err)
	}
	now := s.now()
	return salesBetween(invoices, now.Add(-2*week), now.Add(-week)), nil
}

// TopSellingProduct returns false when no invoice line exists.
func (s *AnalyticsService) TopSellingProduct(ctx context.Context) (TopProduct, bool, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		return TopProduct{}, false, fmt.Errorf("load invoices: %w", err)
	}
	top, ok := topSelling(invoices)
	return top, ok, nil
}

func (s *AnalyticsService) LowStockItems(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return lowStock(items), nil
}

func (s *AnalyticsService) GenerateInsights(ctx context.Context) ([]string, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return BuildInsights(summary), nil
}

func (s *AnalyticsService) Summary(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.Summary")
	defer span.End()

	items, err := s.inventory.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load inventory: %w", err)
	}
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load invoices: %w", err)
	}

	now := s.now()
	local := now.In(s.location)
	summary := Summary{
		TodaySales:     salesOnDay(invoices, local),
		ThisMonthSales: salesInMonth(invoices, local),
		ThisWeekSales:  salesBetween(invoices, now.Add(-week), now),
		LastWeekSales:  salesBetween(invoices, now.Add(-2*week), now.Add(-week)),
		LowStock:       lowStock(items),
		InvoiceCount:   len(invoices),
		ItemCount:      len(items),
		GeneratedAt:    now,
	}
	if top, ok := topSelling(invoices); ok {
		summary.TopProduct = &top
	}
	return summary, nil
}

func salesOnDay(invoices []domain.Invoice, day time.Time) decimal.Decimal {
	y, m, d := day.Date()
	total := decimal.Zero
	for _, inv := range invoices {
		iy, im, id := inv.CreatedAt.In(day.Location()).Date()
		if iy == y && im == m && id == d {
			total = total.Add(inv.Total)
		}
	}
	return total
}

func salesInMonth(invoices []domain.Invoice, month time.Time) decimal.Decimal {
	y, m, _ := month.Date()
	total := decimal.Zero
	for _, inv := range invoices {
		iy, im, _ := inv.CreatedAt.In(month.Location()).Date()
		if iy == y && im == m {
			total = total.Add(inv.Total)
		}
	}
	return total
}

// salesBetween sums invoices with from <= createdAt < to.
func salesBetween(invoices []domain.Invoice, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		if !inv.CreatedAt.Before(from) && inv.CreatedAt.Before(to) {
			total = total.Add(inv.Total)
		}
	}
	return total
}

// topSelling keeps the first product seen as leader until another one sells
// strictly more units.
func topSelling(invoices []domain.Invoice) (TopProduct, bool) {
	sold := make(map[string]*TopProduct)
	var order []*TopProduct
	for _, inv := range invoices {
		for _, l := range inv.Items {
			p, ok := sold[l.ItemID]
			if !ok {
				p = &TopProduct{ItemID: l.ItemID, Name: l.ItemName}
				sold[l.ItemID] = p
				order = append(order, p)
			}
			p.Quantity += l.Quantity
		}
	}
	if len(order) == 0 {
		return TopProduct{}, false
	}

	leader := order[0]
	for _, p := range order[1:] {
		if p.Quantity > leader.Quantity {
			leader = p
		}
	}
	return *leader, true
}

func lowStock(items []domain.InventoryItem) []domain.InventoryItem {
	low := make([]domain.InventoryItem, 0)
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/24f2006233/vyappar-smart/internal/adapter/storage"
	"github.com/24f2006233/vyappar-smart/internal/config"
	"github.com/24f2006233/vyappar-smart/internal/core/domain"
	"github.com/24f2006233/vyappar-smart/internal/core/service"
	"github.com/24f2006233/vyappar-smart/pkg/logger"
)

type seedItem struct {
	name     string
	quantity int
	price    string
}

var demoItems = []seedItem{
	{"Basmati Rice 5kg", 40, "649.00"},
	{"Sunflower Oil 1L", 25, "155.50"},
	{"Toor Dal 1kg", 12, "139.00"},
	{"Masala Chai 250g", 4, "120.00"},
	{"Washing Powder 1kg", 3, "99.99"},
}

type seedInvoice struct {
	customer string
	lines    map[int]int // demoItems index -> quantity
}

var demoInvoices = []seedInvoice{
	{"Sharma Stores", map[int]int{0: 3, 1: 2}},
	{"Acme Traders", map[int]int{0: 2, 2: 1}},
	{"Walk-in Customer", map[int]int{3: 1}},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.Development})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err = run(logger.WithLogger(context.Background(), log), cfg, log)
	if err != nil {
		log.Errorw("seed failed", "error", err)
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer kv.Close()

	collections := storage.NewCollections(kv, cfg.StoreKeyPrefix)
	inventory := service.NewInventoryService(collections)
	invoices := service.NewInvoiceService(collections, inventory)
	analytics := service.NewAnalyticsService(inventory, invoices, service.WithLocation(cfg.Location))

	ids := make([]string, len(demoItems))
	for i, it := range demoItems {
		item, err := inventory.Add(ctx, it.name, it.quantity, decimal.RequireFromString(it.price))
		if err != nil {
			return fmt.Errorf("add item %s: %w", it.name, err)
		}
		ids[i] = item.ID
	}
	log.Infow("seeded inventory", "count", len(ids))

	for _, si := range demoInvoices {
		var lines []domain.LineRequest
		for idx := range demoItems {
			if qty, ok := si.lines[idx]; ok {
				lines = append(lines, domain.LineRequest{ItemID: ids[idx], Quantity: qty})
			}
		}
		if err := invoices.CheckStock(ctx, lines); err != nil {
			log.Warnw("skipping invoice", "customer", si.customer, "error", err)
			continue
		}
		inv, err := invoices.Create(ctx, si.customer, lines)
		if err != nil {
			return fmt.Errorf("create invoice for %s: %w", si.customer, err)
		}
		log.Infow("seeded invoice", "invoice_id", inv.ID, "customer", inv.CustomerName, "total", inv.Total.StringFixed(2))
	}

	summary, err := analytics.Summary(ctx)
	if err != nil {
		return fmt.Errorf("compute summary: %w", err)
	}

	fmt.Println("\n=== ANALYTICS ===")
	fmt.Printf("Today:      %s\n", summary.TodaySales.StringFixed(2))
	fmt.Printf("This month: %s\n", summary.ThisMonthSales.StringFixed(2))
	fmt.Printf("This week:  %s\n", summary.ThisWeekSales.StringFixed(2))
	fmt.Printf("Last week:  %s\n", summary.LastWeekSales.StringFixed(2))
	if summary.TopProduct != nil {
		fmt.Printf("Top seller: %s (%d units)\n", summary.TopProduct.Name, summary.TopProduct.Quantity)
	}
	fmt.Printf("Low stock:  %d item(s)\n", len(summary.LowStock))

	fmt.Println("\n=== INSIGHTS ===")
	for _, s := range service.BuildInsights(summary) {
		fmt.Println("- " + s)
	}
	return nil
}

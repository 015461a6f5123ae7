package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/24f2006233/vyappar-smart/internal/core/domain"
	"github.com/24f2006233/vyappar-smart/internal/port"
)

const (
	InventoryKey = "inventory"
	InvoicesKey  = "invoices"
)

// Collections persists the inventory and invoice collections as JSON arrays
// on top of a raw KVStore.
type Collections struct {
	kv     port.KVStore
	prefix string
}

func NewCollections(kv port.KVStore, keyPrefix string) *Collections {
	return &Collections{kv: kv, prefix: keyPrefix}
}

type itemRecord struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	Price     json.Number `json:"price"`
	CreatedAt string      `json:"createdAt"`
}

type lineRecord struct {
	ItemID   string      `json:"itemId"`
	ItemName string      `json:"itemName"`
	Quantity int         `json:"quantity"`
	Price    json.Number `json:"price"`
	Total    json.Number `json:"total"`
}

type invoiceRecord struct {
	ID           string       `json:"id"`
	CustomerName string       `json:"customerName"`
	Items        []lineRecord `json:"items"`
	Total        json.Number  `json:"total"`
	CreatedAt    string       `json:"createdAt"`
}

func (c *Collections) LoadInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var records []itemRecord
	if err := c.load(ctx, InventoryKey, &records); err != nil {
		return nil, err
	}

	items := make([]domain.InventoryItem, 0, len(records))
	for i, r := range records {
		item, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", InventoryKey, i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Collections) SaveInventory(ctx context.Context, items []domain.InventoryItem) error {
	records := make([]itemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, itemRecord{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     amount(item.Price),
			CreatedAt: timestamp(item.CreatedAt),
		})
	}
	return c.save(ctx, InventoryKey, records)
}

func (c *Collections) LoadInvoices(ctx context.Context) ([]domain.Invoice, error) {
	var records []invoiceRecord
	if err := c.load(ctx, InvoicesKey, &records); err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(records))
	for i, r := range records {
		inv, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", InvoicesKey, i, err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (c *Collections) SaveInvoices(ctx context.Context, invoices []domain.Invoice) error {
	records := make([]invoiceRecord, 0, len(invoices))
	for _, inv := range invoices {
		lines := make([]lineRecord, 0, len(inv.Items))
		for _, l := range inv.Items {
			lines = append(lines, lineRecord{
				ItemID:   l.ItemID,
				ItemName: l.ItemName,
				Quantity: l.Quantity,
				Price:    amount(l.Price),
				Total:    amount(l.Total),
			})
		}
		records = append(records, invoiceRecord{
			ID:           inv.ID,
			CustomerName: inv.CustomerName,
			Items:        lines,
			Total:        amount(inv.Total),
			CreatedAt:    timestamp(inv.CreatedAt),
		})
	}
	return c.save(ctx, InvoicesKey, records)
}

func (c *Collections) load(ctx context.Context, key string, dst any) error {
	data, found, err := c.kv.Load(ctx, c.prefix+key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !found || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w: %w", key, domain.ErrCorruptData, err)
	}
	return nil
}

func (c *Collections) save(ctx context.Context, key string, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.kv.Store(ctx, c.prefix+key, data); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (r itemRecord) toDomain() (domain.InventoryItem, error) {
	price, err := parseAmount("price", r.Price)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	createdAt, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	return domain.InventoryItem{
		ID:        r.ID,
		Name:      r.Name,
		Quantity:  r.Quantity,
		Price:     price,
		CreatedAt: createdAt,
	}, nil
}

func (r invoiceRecord) toDomain() (domain.Invoice, error) {
	total, err := parseAmount("total", r.Total)
	if err != nil {
		return domain.Invoice{}, err
	}
	createdAt, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return domain.Invoice{}, err
	}

	lines := make([]domain.InvoiceLine, 0, len(r.Items))
	for _, l := range r.Items {
		price, err := parseAmount("items.price", l.Price)
		if err != nil {
			return domain.Invoice{}, err
		}
		lineTotal, err := parseAmount("items.total", l.Total)
		if err != nil {
			return domain.Invoice{}, err
		}
		lines = append(lines, domain.InvoiceLine{
			ItemID:   l.ItemID,
			ItemName: l.ItemName,
			Quantity: l.Quantity,
			Price:    price,
			Total:    lineTotal,
		})
	}

	return domain.Invoice{
		ID:           r.ID,
		CustomerName: r.CustomerName,
		Items:        lines,
		Total:        total,
		CreatedAt:    createdAt,
	}, nil
}

// amount writes the exact decimal digits as a JSON number.
func amount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func parseAmount(field string, n json.Number) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w: %w", field, n, domain.ErrCorruptData, err)
	}
	return d, nil
}

func timestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("createdAt %q: %w: %w", s, domain.ErrCorruptData, err)
	}
	return t, nil
}

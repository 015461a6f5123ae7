package port

import (
	"context"

	"github.com/24f2006233/vyappar-smart/internal/core/domain"
)

type CollectionStore interface {
	// LoadInventory returns the persisted items, or an empty slice on first run
	LoadInventory(ctx context.Context) ([]domain.InventoryItem, error)

	// SaveInventory replaces the whole inventory collection
	SaveInventory(ctx context.Context, items []domain.InventoryItem) error

	// LoadInvoices returns the persisted invoices, or an empty slice on first run
	LoadInvoices(ctx context.Context) ([]domain.Invoice, error)

	// SaveInvoices replaces the whole invoice collection
	SaveInvoices(ctx context.Context, invoices []domain.Invoice) error
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customerName"`
	Items        []InvoiceLine   `json:"items"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// InvoiceLine is a sold line. ItemName and Price are copied from the
// inventory item at sale time and never refreshed.
type InvoiceLine struct {
	ItemID   string          `json:"itemId"`
	ItemName string          `json:"itemName"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

// LineRequest asks for quantity units of an inventory item.
type LineRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// NewInvoiceLine snapshots item and computes the line total.
func NewInvoiceLine(item InventoryItem, quantity int) InvoiceLine {
	return InvoiceLine{
		ItemID:   item.ID,
		ItemName: item.Name,
		Quantity: quantity,
		Price:    item.Price,
		Total:    item.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// SumLines adds up the line totals.
func SumLines(lines []InvoiceLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return total
}

// ValidateInvoiceRequest checks the customer and line selection before any
// inventory lookup happens.
func ValidateInvoiceRequest(customerName string, lines []LineRequest) error {
	if strings.TrimSpace(customerName) == "" {
		return NewValidationError("customerName", "customer name is required")
	}
	if len(lines) == 0 {
		return NewValidationError("items", "at least one item is required")
	}
	for i, l := range lines {
		if strings.TrimSpace(l.ItemID) == "" {
			return NewValidationError(fmt.Sprintf("items[%d].itemId", i), "item selection is required")
		}
		if l.Quantity <= 0 {
			return NewValidationError(fmt.Sprintf("items[%d].quantity", i), "quantity must be greater than zero")
		}
	}
	return nil
}

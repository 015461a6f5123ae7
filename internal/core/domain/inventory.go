package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the quantity below which an item counts as low stock.
const LowStockThreshold = 5

type InventoryItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}

// IsLowStock reports whether the item is under LowStockThreshold.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity < LowStockThreshold
}

// ItemPatch carries a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Name     *string          `json:"name,omitempty"`
	Quantity *int             `json:"quantity,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// IsEmpty reports whether the patch sets no field at all.
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Quantity == nil && p.Price == nil
}

// Validate checks every field the patch sets with the same rules as a new item.
func (p ItemPatch) Validate() error {
	if p.Name != nil {
		if err := ValidateItemName(*p.Name); err != nil {
			return err
		}
	}
	if p.Quantity != nil {
		if err := ValidateItemQuantity(*p.Quantity); err != nil {
			return err
		}
	}
	if p.Price != nil {
		if err := ValidateItemPrice(*p.Price); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the patch into item field by field.
func (p ItemPatch) Apply(item *InventoryItem) {
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
}

// Reduce lowers the quantity by amount, clamping at zero.
func (i *InventoryItem) Reduce(amount int) {
	i.Quantity = max(0, i.Quantity-amount)
}

func ValidateItemName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "item name is required")
	}
	return nil
}

func ValidateItemQuantity(quantity int) error {
	if quantity < 0 {
		return NewValidationError("quantity", "quantity cannot be negative")
	}
	return nil
}

func ValidateReduceAmount(amount int) error {
	if amount < 0 {
		return NewValidationError("amount", "amount cannot be negative")
	}
	return nil
}

func ValidateItemPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return NewValidationError("price", "price must be greater than zero")
	}
	return nil
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product belongs to one store. Price and Inventory never go negative:
// price writes are floored at zero and inventory is only ever changed
// through floored or conditional SQL updates.
type Product struct {
	ID          string
	StoreID     string
	Name        string
	Description string
	Price       decimal.Decimal
	Inventory   int
	ImagePath   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

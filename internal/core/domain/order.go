package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is immutable once created. Payment is simulated, so orders are
// created with IsPaid already set.
type Order struct {
	ID          string
	UserID      string
	TotalAmount decimal.Decimal
	IsPaid      bool
	CreatedAt   time.Time
}

// OrderItem snapshots the unit price at purchase time so later price
// changes never alter historical orders.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

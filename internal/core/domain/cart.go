package domain

import "github.com/shopspring/decimal"

// CartLine is one product reserved in a session cart. UnitPrice is the
// product's price at read time, not at the time the line was added.
type CartLine struct {
	Product   Product
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

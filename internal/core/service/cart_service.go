package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/internal/port"
)

// CartService keeps a bounded reservation of inventory per session. It
// never touches persistent storage until checkout; all writes clamp to
// the product's live inventory instead of rejecting.
type CartService struct {
	carts    port.CartRepository
	products port.ProductRepository
}

func NewCartService(carts port.CartRepository, products port.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// Add is a no-op for products with no inventory. Otherwise the stored
// quantity becomes min(current + quantity, inventory).
func (s *CartService) Add(ctx context.Context, sessionID string, product domain.Product, quantity int) error {
	if product.Inventory <= 0 {
		return nil
	}

	if _, err := s.carts.AddClamped(ctx, sessionID, product.ID, quantity, product.Inventory); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

// Update resolves rawQuantity leniently: a value that does not parse as
// an integer falls back to the quantity already stored, so bad input is
// silently ignored. A resolved quantity at or below zero, or a product
// with no inventory, removes the line; anything else is clamped and stored.
func (s *CartService) Update(ctx context.Context, sessionID string, product domain.Product, rawQuantity string) error {
	quantity, err := strconv.Atoi(strings.TrimSpace(rawQuantity))
	if err != nil {
		stored, qerr := s.carts.Quantities(ctx, sessionID)
		if qerr != nil {
			return fmt.Errorf("read cart: %w", qerr)
		}
		quantity = stored[product.ID]
	}

	if quantity <= 0 || product.Inventory <= 0 {
		if err := s.carts.Remove(ctx, sessionID, product.ID); err != nil {
			return fmt.Errorf("remove from cart: %w", err)
		}
		return nil
	}

	if quantity > product.Inventory {
		quantity = product.Inventory
	}
	if err := s.carts.SetQuantity(ctx, sessionID, product.ID, quantity); err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	return nil
}

func (s *CartService) Remove(ctx context.Context, sessionID string, product domain.Product) error {
	if err := s.carts.Remove(ctx, sessionID, product.ID); err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

// Items returns one line per product still present in the catalog, priced
// live. Products deleted since they were added are dropped without signal.
// Order follows the product query, not insertion.
func (s *CartService) Items(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	quantities, err := s.carts.Quantities(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(quantities) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}

	products, err := s.products.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(products))
	for _, p := range products {
		quantity := quantities[p.ID]
		if quantity <= 0 {
			continue
		}
		lines = append(lines, domain.CartLine{
			Product:   p,
			Quantity:  quantity,
			UnitPrice: p.Price,
			LineTotal: p.Price.Mul(decimal.NewFromInt(int64(quantity))),
		})
	}
	return lines, nil
}

// TotalPrice sums the line totals; an empty cart totals zero.
func (s *CartService) TotalPrice(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	lines, err := s.Items(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}
	return total, nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

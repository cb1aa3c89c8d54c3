package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/internal/port"
	"github.com/eshop/storefront/pkg/logx"
)

var ErrEmptyCart = errors.New("cart is empty")

// CheckoutService turns a session cart into an immutable order. Order row,
// order items, inventory decrements and the receipt send all happen inside
// one transaction: a failed receipt or an oversold line rolls everything
// back and leaves the cart intact.
type CheckoutService struct {
	cart   *CartService
	orders port.OrderRepository
	mailer port.Mailer
	sender string
}

func NewCheckoutService(cart *CartService, orders port.OrderRepository, mailer port.Mailer, sender string) *CheckoutService {
	return &CheckoutService{cart: cart, orders: orders, mailer: mailer, sender: sender}
}

func (s *CheckoutService) Checkout(ctx context.Context, buyer domain.User, sessionID string) (*domain.Order, error) {
	lines, err := s.cart.Items(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}

	order := domain.Order{
		ID:          uuid.New().String(),
		UserID:      buyer.ID,
		TotalAmount: total,
		IsPaid:      true,
		CreatedAt:   time.Now(),
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	receipt := buildReceipt(lines, total)
	err = s.orders.PlaceOrder(ctx, order, items, func(ctx context.Context) error {
		return s.mailer.Send(ctx, port.Mail{
			Subject: "Your Invoice",
			Body:    receipt,
			From:    s.sender,
			To:      []string{buyer.Email},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	// The order is committed at this point; a failure to drop the cart is
	// logged rather than reported as a failed checkout.
	if err := s.cart.Clear(ctx, sessionID); err != nil {
		logx.Warn().Err(err).Str("order_id", order.ID).Msg("cart not cleared after checkout")
	}

	return &order, nil
}

func buildReceipt(lines []domain.CartLine, total decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("Thank you for your order!\n\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "%s x %d - $%s\n", line.Product.Name, line.Quantity, line.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: $%s\n", total.StringFixed(2))
	return b.String()
}

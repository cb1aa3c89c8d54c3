package port

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/eshop/storefront/internal/core/domain"
)

// ErrInsufficientInventory is returned by PlaceOrder when a conditional
// inventory decrement matches no row, i.e. someone else bought the stock
// first. The whole order is rolled back.
var ErrInsufficientInventory = errors.New("insufficient inventory")

type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) error

	// GetUserByEmail returns nil when no user has the address.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUser returns nil when the ID is unknown.
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

type StoreRepository interface {
	CreateStore(ctx context.Context, store domain.Store) error

	// GetStore returns nil when the ID is unknown.
	GetStore(ctx context.Context, id string) (*domain.Store, error)

	UpdateStore(ctx context.Context, store domain.Store) error
	DeleteStore(ctx context.Context, id string) error
	ListOwnerStores(ctx context.Context, ownerID string) ([]domain.Store, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product domain.Product) error

	// GetProduct returns nil when the ID is unknown.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	UpdateProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListStoreProducts(ctx context.Context, storeID string) ([]domain.Product, error)

	// ProductsByIDs returns only the products that still exist; unknown
	// IDs are omitted without error.
	ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)

	// AdjustInventory applies a signed delta, floored at zero in the store.
	AdjustInventory(ctx context.Context, id string, delta int) error

	SetPrice(ctx context.Context, id string, price decimal.Decimal) error
}

type OrderRepository interface {
	// PlaceOrder persists the order and its items and conditionally
	// decrements inventory per item, all in one transaction. beforeCommit
	// runs inside the transaction; an error from it rolls everything back.
	PlaceOrder(ctx context.Context, order domain.Order, items []domain.OrderItem, beforeCommit func(context.Context) error) error

	// HasPaidOrder reports whether the user has at least one paid order
	// containing the product.
	HasPaidOrder(ctx context.Context, userID, productID string) (bool, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, review domain.Review) error
	ListVerifiedReviews(ctx context.Context, productID string) ([]domain.Review, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/internal/port"
)

var (
	ErrNotVendor       = errors.New("account is not a vendor")
	ErrNotOwner        = errors.New("store belongs to another vendor")
	ErrStoreNotFound   = errors.New("store not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("invalid price")
)

// VendorService covers the vendor side: store and product CRUD plus the
// two single-field mutators on a product. Everything is owner-scoped.
type VendorService struct {
	stores   port.StoreRepository
	products port.ProductRepository
	announce *AnnounceService
}

func NewVendorService(stores port.StoreRepository, products port.ProductRepository, announce *AnnounceService) *VendorService {
	return &VendorService{stores: stores, products: products, announce: announce}
}

func (s *VendorService) CreateStore(ctx context.Context, owner domain.User, name, description, logoPath string) (*domain.Store, error) {
	if !owner.IsVendor {
		return nil, ErrNotVendor
	}

	store := domain.Store{
		ID:          uuid.New().String(),
		OwnerID:     owner.ID,
		Name:        name,
		Description: description,
		LogoPath:    logoPath,
		CreatedAt:   time.Now(),
	}
	if err := s.stores.CreateStore(ctx, store); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	s.announce.Enqueue(Announcement{
		Text:      strings.TrimSpace(fmt.Sprintf("New store: %s\n%s", store.Name, store.Description)),
		MediaPath: store.LogoPath,
	})
	return &store, nil
}

func (s *VendorService) UpdateStore(ctx context.Context, owner domain.User, storeID, name, description, logoPath string) (*domain.Store, error) {
	store, err := s.ownedStore(ctx, owner, storeID)
	if err != nil {
		return nil, err
	}

	store.Name = name
	store.Description = description
	store.LogoPath = logoPath
	if err := s.stores.UpdateStore(ctx, *store); err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}
	return store, nil
}

func (s *VendorService) DeleteStore(ctx context.Context, owner domain.User, storeID string) error {
	store, err := s.ownedStore(ctx, owner, storeID)
	if err != nil {
		return err
	}
	if err := s.stores.DeleteStore(ctx, store.ID); err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	return nil
}

func (s *VendorService) Stores(ctx context.Context, owner domain.User) ([]domain.Store, error) {
	if !owner.IsVendor {
		return nil, ErrNotVendor
	}
	stores, err := s.stores.ListOwnerStores(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

func (s *VendorService) CreateProduct(ctx context.Context, owner domain.User, storeID, name, description string, price decimal.Decimal, inventory int, imagePath string) (*domain.Product, error) {
	store, err := s.ownedStore(ctx, owner, storeID)
	if err != nil {
		return nil, err
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	if inventory < 0 {
		inventory = 0
	}

	now := time.Now()
	product := domain.Product{
		ID:          uuid.New().String(),
		StoreID:     store.ID,
		Name:        name,
		Description: description,
		Price:       price,
		Inventory:   inventory,
		ImagePath:   imagePath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.announce.Enqueue(Announcement{
		Text:      strings.TrimSpace(fmt.Sprintf("New product at %s: %s\n%s", store.Name, product.Name, product.Description)),
		MediaPath: product.ImagePath,
	})
	return &product, nil
}

func (s *VendorService) UpdateProduct(ctx context.Context, owner domain.User, storeID, productID, name, description, imagePath string) (*domain.Product, error) {
	product, err := s.ownedProduct(ctx, owner, storeID, productID)
	if err != nil {
		return nil, err
	}

	product.Name = name
	product.Description = description
	product.ImagePath = imagePath
	product.UpdatedAt = time.Now()
	if err := s.products.UpdateProduct(ctx, *product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *VendorService) DeleteProduct(ctx context.Context, owner domain.User, storeID, productID string) error {
	product, err := s.ownedProduct(ctx, owner, storeID, productID)
	if err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, product.ID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *VendorService) StoreProducts(ctx context.Context, owner domain.User, storeID string) ([]domain.Product, error) {
	store, err := s.ownedStore(ctx, owner, storeID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListStoreProducts(ctx, store.ID)
	if err != nil {
		return nil, fmt.Errorf("list store products: %w", err)
	}
	return products, nil
}

// AdjustInventory applies a signed delta: +amount for action "inc",
// -amount otherwise. The amount is parsed from rawAmount with a minimum
// of 1 and falls back to 1 when it does not parse. The result is floored
// at zero in the store.
func (s *VendorService) AdjustInventory(ctx context.Context, owner domain.User, storeID, productID, action, rawAmount string) error {
	product, err := s.ownedProduct(ctx, owner, storeID, productID)
	if err != nil {
		return err
	}

	amount := 1
	if v, err := strconv.Atoi(strings.TrimSpace(rawAmount)); err == nil && v > 1 {
		amount = v
	}

	delta := amount
	if action != "inc" {
		delta = -amount
	}
	if err := s.products.AdjustInventory(ctx, product.ID, delta); err != nil {
		return fmt.Errorf("adjust inventory: %w", err)
	}
	return nil
}

// AdjustPrice rejects non-numeric input without mutating anything and
// floors negative values to zero.
func (s *VendorService) AdjustPrice(ctx context.Context, owner domain.User, storeID, productID, rawPrice string) error {
	product, err := s.ownedProduct(ctx, owner, storeID, productID)
	if err != nil {
		return err
	}

	price, err := decimal.NewFromString(strings.TrimSpace(rawPrice))
	if err != nil {
		return ErrInvalidPrice
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	if err := s.products.SetPrice(ctx, product.ID, price); err != nil {
		return fmt.Errorf("set price: %w", err)
	}
	return nil
}

func (s *VendorService) ownedStore(ctx context.Context, owner domain.User, storeID string) (*domain.Store, error) {
	if !owner.IsVendor {
		return nil, ErrNotVendor
	}

	store, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	if store.OwnerID != owner.ID {
		return nil, ErrNotOwner
	}
	return store, nil
}

func (s *VendorService) ownedProduct(ctx context.Context, owner domain.User, storeID, productID string) (*domain.Product, error) {
	store, err := s.ownedStore(ctx, owner, storeID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || product.StoreID != store.ID {
		return nil, ErrProductNotFound
	}
	return product, nil
}

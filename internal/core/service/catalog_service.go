package service

import (
	"context"
	"fmt"

	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/internal/port"
)

// CatalogService serves the buyer-facing browse views.
type CatalogService struct {
	products port.ProductRepository
	reviews  port.ReviewRepository
	orders   port.OrderRepository
}

// ProductDetail bundles what the product page shows: the product, its
// verified reviews, and whether the viewer has bought it.
type ProductDetail struct {
	Product   domain.Product
	Reviews   []domain.Review
	Purchased bool
}

func NewCatalogService(products port.ProductRepository, reviews port.ReviewRepository, orders port.OrderRepository) *CatalogService {
	return &CatalogService{products: products, reviews: reviews, orders: orders}
}

func (s *CatalogService) Products(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Product returns nil when the ID is unknown; viewer may be nil for
// anonymous browsing.
func (s *CatalogService) Product(ctx context.Context, productID string, viewer *domain.User) (*ProductDetail, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, nil
	}

	reviews, err := s.reviews.ListVerifiedReviews(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	detail := &ProductDetail{Product: *product, Reviews: reviews}
	if viewer != nil {
		purchased, err := s.orders.HasPaidOrder(ctx, viewer.ID, product.ID)
		if err != nil {
			return nil, fmt.Errorf("check purchase: %w", err)
		}
		detail.Purchased = purchased
	}
	return detail, nil
}

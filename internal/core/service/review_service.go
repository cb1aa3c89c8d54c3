package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eshop/storefront/internal/core/domain"
	"github.com/eshop/storefront/internal/port"
)

var (
	ErrNotVerifiedPurchaser = errors.New("no paid order contains this product")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
)

// ReviewService gates reviews on a confirmed purchase. A rejected
// submission writes nothing; an accepted one is stored verified, because
// eligibility was already proven. Submitters can never set the flag.
type ReviewService struct {
	reviews port.ReviewRepository
	orders  port.OrderRepository
}

func NewReviewService(reviews port.ReviewRepository, orders port.OrderRepository) *ReviewService {
	return &ReviewService{reviews: reviews, orders: orders}
}

func (s *ReviewService) Add(ctx context.Context, user domain.User, productID string, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	purchased, err := s.orders.HasPaidOrder(ctx, user.ID, productID)
	if err != nil {
		return nil, fmt.Errorf("verify purchase: %w", err)
	}
	if !purchased {
		return nil, ErrNotVerifiedPurchaser
	}

	review := domain.Review{
		ID:         uuid.New().String(),
		ProductID:  productID,
		UserID:     user.ID,
		Rating:     rating,
		Comment:    comment,
		IsVerified: true,
		CreatedAt:  time.Now(),
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &review, nil
}

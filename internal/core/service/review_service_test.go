package service

import (
	"context"
	"errors"
	"testing"

	"github.com/eshop/storefront/internal/core/domain"
)

func TestAddReview_UnverifiedPurchaserRejected(t *testing.T) {
	reviews := &memReviewRepo{}
	orders := newMemOrderRepo(newMemProductRepo())
	svc := NewReviewService(reviews, orders)

	user := domain.User{ID: "buyer-1"}
	_, err := svc.Add(context.Background(), user, "widget", 5, "great")
	if !errors.Is(err, ErrNotVerifiedPurchaser) {
		t.Fatalf("expected ErrNotVerifiedPurchaser, got %v", err)
	}
	if len(reviews.reviews) != 0 {
		t.Errorf("expected no review stored, got %d", len(reviews.reviews))
	}
}

func TestAddReview_VerifiedPurchaserGetsVerifiedFlag(t *testing.T) {
	reviews := &memReviewRepo{}
	orders := newMemOrderRepo(newMemProductRepo())
	orders.markPaid("buyer-1", "widget")
	svc := NewReviewService(reviews, orders)

	user := domain.User{ID: "buyer-1"}
	review, err := svc.Add(context.Background(), user, "widget", 4, "works well")
	if err != nil {
		t.Fatalf("add review failed: %v", err)
	}

	if !review.IsVerified {
		t.Error("expected review marked verified")
	}
	if len(reviews.reviews) != 1 {
		t.Fatalf("expected 1 stored review, got %d", len(reviews.reviews))
	}
	if !reviews.reviews[0].IsVerified {
		t.Error("expected stored review marked verified")
	}
}

func TestAddReview_RatingOutOfRangeRejected(t *testing.T) {
	reviews := &memReviewRepo{}
	orders := newMemOrderRepo(newMemProductRepo())
	orders.markPaid("buyer-1", "widget")
	svc := NewReviewService(reviews, orders)

	user := domain.User{ID: "buyer-1"}
	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.Add(context.Background(), user, "widget", rating, ""); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
	if len(reviews.reviews) != 0 {
		t.Errorf("expected no review stored, got %d", len(reviews.reviews))
	}
}

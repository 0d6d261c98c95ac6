package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ReviewService manages product reviews. One review per user per product;
// only approved reviews are listed publicly.
type ReviewService interface {
	ListForProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Review, int, error)
	Create(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (*domain.Review, error)
	Update(ctx context.Context, userID, reviewID uuid.UUID, rating int, comment string) (*domain.Review, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
}

type reviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository) ReviewService {
	return &reviewService{reviews: reviews, products: products}
}

// ListForProduct retrieves a page of approved reviews for a product
func (s *reviewService) ListForProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Review, int, error) {
	reviews, total, err := s.reviews.ListByProduct(ctx, productID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

// Create submits a review for moderation. A second review of the same product
// by the same user is rejected.
func (s *reviewService) Create(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
		Approved:  false,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

// Update modifies the user's own review; edits go back through moderation
func (s *reviewService) Update(ctx context.Context, userID, reviewID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}

	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	review.Rating = rating
	review.Comment = comment
	review.Approved = false
	review.UpdatedAt = time.Now()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	return review, nil
}

// Delete removes the user's own review
func (s *reviewService) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return domain.ErrUnauthorized
	}
	return s.reviews.Delete(ctx, reviewID)
}

package service

import (
	"context"
	"fmt"

	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
)

// WishlistService manages a user's wishlist
type WishlistService interface {
	List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.WishlistItem, int, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	// Toggle adds the product when absent and removes it when present,
	// returning whether the product is wished for afterwards
	Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type wishlistService struct {
	wishlist repository.WishlistRepository
	products repository.ProductRepository
}

// NewWishlistService creates a new instance of WishlistService
func NewWishlistService(wishlist repository.WishlistRepository, products repository.ProductRepository) WishlistService {
	return &wishlistService{wishlist: wishlist, products: products}
}

// List retrieves a page of the user's wishlist with product data attached
func (s *wishlistService) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.WishlistItem, int, error) {
	items, total, err := s.wishlist.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return items, total, nil
}

// Add puts the product on the user's wishlist; a no-op if already present
func (s *wishlistService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.wishlist.Add(ctx, userID, productID)
}

// Remove takes the product off the user's wishlist; a no-op if absent
func (s *wishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.wishlist.Remove(ctx, userID, productID)
}

// Toggle flips the product's wishlist membership
func (s *wishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	exists, err := s.wishlist.Exists(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}

	if exists {
		if err := s.wishlist.Remove(ctx, userID, productID); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.Add(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

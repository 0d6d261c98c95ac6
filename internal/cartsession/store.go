// Package cartsession stores anonymous carts in Redis, keyed by an opaque
// session token issued to the visitor. Each cart is a hash of product ID to
// quantity with a sliding TTL, so abandoned guest carts expire on their own.
package cartsession

import (
	"context"
	"fmt"
	"time"

	"shopfront/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is the session-backed cart for anonymous visitors
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a guest cart store with the given entry TTL
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func cartKey(token string) string {
	return "guest_cart:" + token
}

// Lines returns all cart lines for the session token. Hash fields that do
// not parse as product IDs are skipped.
func (s *Store) Lines(ctx context.Context, token string) ([]domain.CartLine, error) {
	entries, err := s.client.HGetAll(ctx, cartKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	lines := []domain.CartLine{}
	for field, value := range entries {
		productID, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		var quantity int
		if _, err := fmt.Sscanf(value, "%d", &quantity); err != nil || quantity <= 0 {
			continue
		}
		lines = append(lines, domain.CartLine{ProductID: productID, Quantity: quantity})
	}

	return lines, nil
}

// GetQuantity returns the stored quantity for a product, zero if absent
func (s *Store) GetQuantity(ctx context.Context, token string, productID uuid.UUID) (int, error) {
	value, err := s.client.HGet(ctx, cartKey(token), productID.String()).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read guest cart line: %w", err)
	}
	return value, nil
}

// SetQuantity stores an absolute quantity for a product and refreshes the TTL
func (s *Store) SetQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) error {
	key := cartKey(token)
	if err := s.client.HSet(ctx, key, productID.String(), quantity).Err(); err != nil {
		return fmt.Errorf("failed to write guest cart line: %w", err)
	}
	s.client.Expire(ctx, key, s.ttl)
	return nil
}

// AddQuantity adds delta to a product's stored quantity and refreshes the TTL
func (s *Store) AddQuantity(ctx context.Context, token string, productID uuid.UUID, delta int) error {
	key := cartKey(token)
	if err := s.client.HIncrBy(ctx, key, productID.String(), int64(delta)).Err(); err != nil {
		return fmt.Errorf("failed to increment guest cart line: %w", err)
	}
	s.client.Expire(ctx, key, s.ttl)
	return nil
}

// Remove deletes a product from the cart; a no-op if absent
func (s *Store) Remove(ctx context.Context, token string, productID uuid.UUID) error {
	if err := s.client.HDel(ctx, cartKey(token), productID.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove guest cart line: %w", err)
	}
	return nil
}

// Clear deletes the whole cart for the session token
func (s *Store) Clear(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, cartKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}
	return nil
}

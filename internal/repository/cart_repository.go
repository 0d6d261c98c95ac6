package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/domain"

	"github.com/google/uuid"
)

var ErrCartLineNotFound = errors.New("cart line not found")

// CartRepository persists cart lines for registered users. At most one line
// exists per (user, product); the unique constraint backs that invariant.
type CartRepository interface {
	Lines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error)
	GetQuantity(ctx context.Context, userID, productID uuid.UUID) (int, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	AddQuantity(ctx context.Context, userID, productID uuid.UUID, delta int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	ClearTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Lines retrieves all cart lines for a user
func (r *cartRepository) Lines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	query := `
		SELECT product_id, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// GetQuantity returns the stored quantity for (user, product), zero if absent
func (r *cartRepository) GetQuantity(ctx context.Context, userID, productID uuid.UUID) (int, error) {
	query := `SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`

	var quantity int
	err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(&quantity)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get cart quantity: %w", err)
	}

	return quantity, nil
}

// SetQuantity upserts a cart line with an absolute quantity
func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), userID, productID, quantity, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set cart quantity: %w", err)
	}

	return nil
}

// AddQuantity upserts a cart line, adding delta to any existing quantity
func (r *cartRepository) AddQuantity(ctx context.Context, userID, productID uuid.UUID, delta int) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), userID, productID, delta, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add cart quantity: %w", err)
	}

	return nil
}

// Remove deletes a cart line; removing an absent line is a no-op
func (r *cartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}

	return nil
}

// Clear deletes all cart lines for a user
func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

// ClearTx deletes all cart lines for a user inside the checkout transaction
func (r *cartRepository) ClearTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := tx.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order is not cancellable")
)

// OrderRepository defines the interface for order data access. CreateWithLines
// and Cancel are the two transactional operations of the system: each runs as
// a single atomic unit and rolls back completely on any failure.
type OrderRepository interface {
	CreateWithLines(ctx context.Context, order *domain.Order, clearCartUserID *uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

type orderRepository struct {
	db       *sql.DB
	products ProductRepository
	carts    CartRepository
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB, products ProductRepository, carts CartRepository) OrderRepository {
	return &orderRepository{db: db, products: products, carts: carts}
}

// CreateWithLines inserts the order and its line snapshots, decrements stock
// conditionally per line, and clears the user's persisted cart, all in one
// transaction. Statement order: order insert, then per-line snapshot insert +
// stock decrement, then cart clear. clearCartUserID is nil for guest orders,
// whose session cart lives outside the database.
func (r *orderRepository) CreateWithLines(ctx context.Context, order *domain.Order, clearCartUserID *uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var guestAddr []byte
	if order.GuestShippingAddress != nil {
		guestAddr, err = json.Marshal(order.GuestShippingAddress)
		if err != nil {
			return fmt.Errorf("failed to marshal guest shipping address: %w", err)
		}
	}

	orderQuery := `
		INSERT INTO orders (id, user_id, guest_email, guest_name, total, status,
		                    shipping_address_id, guest_shipping_address, payment_method, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`

	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.UserID,
		order.GuestEmail,
		order.GuestName,
		order.Total,
		order.Status,
		order.ShippingAddressID,
		guestAddr,
		order.PaymentMethod,
		order.Notes,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	lineQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`

	for i := range order.Lines {
		line := &order.Lines[i]
		line.ID = uuid.New()
		line.OrderID = order.ID

		_, err = tx.ExecContext(ctx, lineQuery, line.ID, line.OrderID, line.ProductID, line.Quantity, line.Price)
		if err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}

		if err := r.products.DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}

	if clearCartUserID != nil {
		if err := r.carts.ClearTx(ctx, tx, *clearCartUserID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order transaction: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its lines
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, user_id, guest_email, guest_name, total, status,
		       shipping_address_id, guest_shipping_address, payment_method, notes, cancelled_at, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	lines, err := r.linesForOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return order, nil
}

// ListByUser retrieves a user's orders, newest first, with line counts loaded
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * pageSize

	query := `
		SELECT id, user_id, guest_email, guest_name, total, status,
		       shipping_address_id, guest_shipping_address, payment_method, notes, cancelled_at, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		lines, err := r.linesForOrder(ctx, order.ID)
		if err != nil {
			return nil, 0, err
		}
		order.Lines = lines
	}

	return orders, total, nil
}

// Cancel restores every line's quantity onto product stock and flips the
// order to cancelled, in one transaction. The guarded status update keeps a
// concurrent second cancel (or a shipped order) from restoring stock twice.
func (r *orderRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statusQuery := `
		UPDATE orders
		SET status = $2, cancelled_at = $3
		WHERE id = $1 AND status IN ($4, $5)
	`

	result, err := tx.ExecContext(ctx, statusQuery, id,
		domain.OrderStatusCancelled, time.Now(),
		domain.OrderStatusPending, domain.OrderStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotCancellable
	}

	lines, err := r.linesForOrder(ctx, id)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if err := r.products.IncrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}

	return nil
}

func (r *orderRepository) linesForOrder(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		       p.id, p.sku, p.name, p.description, p.price, p.category_id, p.image_url, p.stock_quantity, p.featured, p.created_at, p.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.OrderLine{}
	for rows.Next() {
		var line domain.OrderLine
		product := &domain.Product{}
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Quantity,
			&line.Price,
			&product.ID,
			&product.SKU,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.CategoryID,
			&product.ImageURL,
			&product.StockQuantity,
			&product.Featured,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		line.Product = product
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return lines, nil
}

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	var guestAddr []byte

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.GuestEmail,
		&order.GuestName,
		&order.Total,
		&order.Status,
		&order.ShippingAddressID,
		&guestAddr,
		&order.PaymentMethod,
		&order.Notes,
		&order.CancelledAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(guestAddr) > 0 {
		details := &domain.ShippingDetails{}
		if err := json.Unmarshal(guestAddr, details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal guest shipping address: %w", err)
		}
		order.GuestShippingAddress = details
	}

	return order, nil
}

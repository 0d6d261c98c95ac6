package service

import (
	"context"
	"errors"
	"fmt"

	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService exposes the post-creation order lifecycle. Status is the only
// mutable surface, and only through Cancel here; the remaining transitions
// belong to administrative tooling.
type OrderService interface {
	ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error)
	GetForOwner(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
}

type orderService struct {
	orders repository.OrderRepository
	logger *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository, logger *zap.Logger) OrderService {
	return &orderService{orders: orders, logger: logger}
}

// ListForUser retrieves a user's orders, newest first
func (s *orderService) ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	orders, total, err := s.orders.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// GetForOwner retrieves an order, enforcing ownership. Guest orders (no
// associated user) are viewable by order ID alone, which is how guests reach
// their confirmation page.
func (s *orderService) GetForOwner(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != nil {
		if userID == nil || *order.UserID != *userID {
			return nil, domain.ErrUnauthorized
		}
	}

	return order, nil
}

// Cancel cancels a pending or processing order, restoring every line's
// quantity onto product stock atomically. Guest orders have no owner and
// cannot be cancelled through this path.
func (s *orderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID == nil || *order.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	if !order.CanBeCancelled() {
		return nil, domain.ErrNotCancellable
	}

	if err := s.orders.Cancel(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotCancellable) {
			return nil, domain.ErrNotCancellable
		}
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	s.logger.Info("Order cancelled",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", userID.String()),
	)

	return s.orders.FindByID(ctx, orderID)
}

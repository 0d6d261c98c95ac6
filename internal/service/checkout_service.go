package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/config"
	"shopfront/internal/domain"
	"shopfront/internal/repository"
	"shopfront/internal/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// CheckoutInput carries everything the order writer needs besides the cart
// itself. The total is never part of the input: it is recomputed server-side.
type CheckoutInput struct {
	PaymentMethod     string
	Notes             string
	ShippingAddressID *uuid.UUID              // registered owners only
	GuestEmail        string                  // guest owners only
	GuestName         string                  // guest owners only
	GuestShipping     *domain.ShippingDetails // guest owners only
}

// CheckoutService converts a validated cart into a durable order
type CheckoutService interface {
	PlaceOrder(ctx context.Context, owner domain.CartOwner, input CheckoutInput) (*domain.Order, error)
}

type checkoutService struct {
	carts     CartService
	orders    repository.OrderRepository
	addresses repository.AddressRepository
	lowStock  LowStockService
	queue     *task.Queue
	shop      config.ShopConfig
	logger    *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	carts CartService,
	orders repository.OrderRepository,
	addresses repository.AddressRepository,
	lowStock LowStockService,
	queue *task.Queue,
	shop config.ShopConfig,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		carts:     carts,
		orders:    orders,
		addresses: addresses,
		lowStock:  lowStock,
		queue:     queue,
		shop:      shop,
		logger:    logger,
	}
}

// validateStock is the stock guard: a point-in-time, line-by-line check of
// requested quantities against live stock. The first failing line
// short-circuits with the product's name and remaining stock.
func validateStock(lines []domain.CartViewLine) error {
	for _, line := range lines {
		if line.Quantity > line.Product.StockQuantity {
			return &domain.StockExceededError{
				ProductName: line.Product.Name,
				Available:   line.Product.StockQuantity,
			}
		}
	}
	return nil
}

// PlaceOrder re-derives the cart server-side, runs the stock guard, and
// commits the order, its line snapshots, the stock decrements, and the cart
// clear as one transaction. All validation failures happen before the
// transaction opens; any failure inside it rolls everything back and
// surfaces a generic error.
func (s *checkoutService) PlaceOrder(ctx context.Context, owner domain.CartOwner, input CheckoutInput) (*domain.Order, error) {
	if !s.shop.IsValidPaymentMethod(input.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	view, err := s.carts.Materialize(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if view.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	if err := validateStock(view.Lines); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:            uuid.New(),
		Total:         view.Subtotal,
		Status:        domain.OrderStatusPending,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
		CreatedAt:     time.Now(),
	}

	var clearCartUserID *uuid.UUID

	if owner.IsRegistered() {
		userID := owner.UserID
		order.UserID = &userID
		clearCartUserID = &userID

		if input.ShippingAddressID != nil {
			address, err := s.addresses.FindByID(ctx, *input.ShippingAddressID)
			if err != nil {
				return nil, err
			}
			if address.UserID != userID {
				return nil, domain.ErrUnauthorized
			}
			order.ShippingAddressID = input.ShippingAddressID
		}
	} else {
		guestEmail := input.GuestEmail
		guestName := input.GuestName
		order.GuestEmail = &guestEmail
		order.GuestName = &guestName
		order.GuestShippingAddress = input.GuestShipping
	}

	for _, line := range view.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			Price:     line.Product.Price,
		})
	}

	if err := s.orders.CreateWithLines(ctx, order, clearCartUserID); err != nil {
		s.logger.Error("Checkout transaction failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return nil, domain.ErrCheckoutFailed
	}

	// Guest carts live in Redis, outside the order transaction; clear after
	// commit. A failure here leaves a stale cart that the clamping view
	// tolerates, so it is logged and ignored.
	if !owner.IsRegistered() {
		if err := s.carts.Clear(ctx, owner); err != nil {
			s.logger.Warn("Failed to clear guest cart after checkout", zap.Error(err))
		}
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", order.Total.String()),
	)

	// Fire-and-forget: a full queue or failing scan never affects the order
	s.queue.Enqueue(func(ctx context.Context) error {
		return s.lowStock.Run(ctx)
	})

	return order, nil
}

package service

import (
	"context"
	"fmt"

	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// MinLineQuantity and MaxLineQuantity bound a single cart line
	MinLineQuantity = 1
	MaxLineQuantity = 100
)

// GuestCartStore is the session-backed cart used for anonymous owners
type GuestCartStore interface {
	Lines(ctx context.Context, token string) ([]domain.CartLine, error)
	GetQuantity(ctx context.Context, token string, productID uuid.UUID) (int, error)
	SetQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) error
	AddQuantity(ctx context.Context, token string, productID uuid.UUID, delta int) error
	Remove(ctx context.Context, token string, productID uuid.UUID) error
	Clear(ctx context.Context, token string) error
}

// CartService tracks desired purchase quantities before checkout for both
// registered and anonymous owners. There is one implementation of every
// operation; the owner decides which backing store it touches.
type CartService interface {
	Add(ctx context.Context, owner domain.CartOwner, productID uuid.UUID, quantity int) error
	UpdateQuantity(ctx context.Context, owner domain.CartOwner, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, owner domain.CartOwner, productID uuid.UUID) error
	Materialize(ctx context.Context, owner domain.CartOwner) (*domain.CartView, error)
	Clear(ctx context.Context, owner domain.CartOwner) error
	TransferGuestCart(ctx context.Context, sessionToken string, userID uuid.UUID) error
}

// cartBackend is the uniform view of one owner's cart storage
type cartBackend interface {
	Lines(ctx context.Context) ([]domain.CartLine, error)
	GetQuantity(ctx context.Context, productID uuid.UUID) (int, error)
	SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error
	AddQuantity(ctx context.Context, productID uuid.UUID, delta int) error
	Remove(ctx context.Context, productID uuid.UUID) error
	Clear(ctx context.Context) error
	// ClampsToStock reports whether Materialize caps line quantities at
	// current stock. Anonymous carts self-clamp; persisted carts keep the
	// stored quantity and fail at checkout instead.
	ClampsToStock() bool
}

type cartService struct {
	products repository.ProductRepository
	carts    repository.CartRepository
	sessions GuestCartStore
}

// NewCartService creates a new instance of CartService
func NewCartService(
	products repository.ProductRepository,
	carts repository.CartRepository,
	sessions GuestCartStore,
) CartService {
	return &cartService{
		products: products,
		carts:    carts,
		sessions: sessions,
	}
}

func (s *cartService) backend(owner domain.CartOwner) cartBackend {
	if owner.IsRegistered() {
		return &persistedBackend{carts: s.carts, userID: owner.UserID}
	}
	return &sessionBackend{store: s.sessions, token: owner.SessionToken}
}

// Add increases the owner's line for the product by quantity, creating the
// line if absent. The cumulative quantity must not exceed current stock.
func (s *cartService) Add(ctx context.Context, owner domain.CartOwner, productID uuid.UUID, quantity int) error {
	if quantity < MinLineQuantity || quantity > MaxLineQuantity {
		return domain.ErrInvalidQuantity
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	cart := s.backend(owner)

	current, err := cart.GetQuantity(ctx, productID)
	if err != nil {
		return err
	}

	if current+quantity > product.StockQuantity {
		return &domain.StockExceededError{
			ProductName: product.Name,
			Available:   product.StockQuantity,
		}
	}

	return cart.AddQuantity(ctx, productID, quantity)
}

// UpdateQuantity sets the line's quantity directly. A quantity of zero or
// less removes the line, for both owner variants.
func (s *cartService) UpdateQuantity(ctx context.Context, owner domain.CartOwner, productID uuid.UUID, quantity int) error {
	if quantity > MaxLineQuantity {
		return domain.ErrInvalidQuantity
	}

	cart := s.backend(owner)

	if quantity <= 0 {
		return cart.Remove(ctx, productID)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	if quantity > product.StockQuantity {
		return &domain.StockExceededError{
			ProductName: product.Name,
			Available:   product.StockQuantity,
		}
	}

	return cart.SetQuantity(ctx, productID, quantity)
}

// Remove deletes the line unconditionally; a no-op if absent
func (s *cartService) Remove(ctx context.Context, owner domain.CartOwner, productID uuid.UUID) error {
	return s.backend(owner).Remove(ctx, productID)
}

// Materialize joins the owner's lines with live product data and computes
// the subtotal. Products that no longer exist are dropped from the view.
func (s *cartService) Materialize(ctx context.Context, owner domain.CartOwner) (*domain.CartView, error) {
	cart := s.backend(owner)

	lines, err := cart.Lines(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &domain.CartView{
		Lines:    []domain.CartViewLine{},
		Subtotal: decimal.Zero,
	}

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			continue
		}

		quantity := line.Quantity
		if cart.ClampsToStock() && quantity > product.StockQuantity {
			quantity = product.StockQuantity
		}
		if quantity == 0 {
			continue
		}

		lineSum := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
		view.Lines = append(view.Lines, domain.CartViewLine{
			Product:  product,
			Quantity: quantity,
			LineSum:  lineSum,
		})
		view.Subtotal = view.Subtotal.Add(lineSum)
	}

	return view, nil
}

// Clear empties all lines for the owner
func (s *cartService) Clear(ctx context.Context, owner domain.CartOwner) error {
	return s.backend(owner).Clear(ctx)
}

// TransferGuestCart folds an anonymous cart into a user's persisted cart at
// login: quantities for the same product add together. No stock
// re-validation happens here; checkout re-validates. The anonymous cart is
// cleared unconditionally afterwards.
func (s *cartService) TransferGuestCart(ctx context.Context, sessionToken string, userID uuid.UUID) error {
	lines, err := s.sessions.Lines(ctx, sessionToken)
	if err != nil {
		return fmt.Errorf("failed to read guest cart for transfer: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	for _, line := range lines {
		if err := s.carts.AddQuantity(ctx, userID, line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("failed to transfer guest cart line: %w", err)
		}
	}

	return s.sessions.Clear(ctx, sessionToken)
}

// persistedBackend binds the database cart to a user
type persistedBackend struct {
	carts  repository.CartRepository
	userID uuid.UUID
}

func (b *persistedBackend) Lines(ctx context.Context) ([]domain.CartLine, error) {
	return b.carts.Lines(ctx, b.userID)
}

func (b *persistedBackend) GetQuantity(ctx context.Context, productID uuid.UUID) (int, error) {
	return b.carts.GetQuantity(ctx, b.userID, productID)
}

func (b *persistedBackend) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	return b.carts.SetQuantity(ctx, b.userID, productID, quantity)
}

func (b *persistedBackend) AddQuantity(ctx context.Context, productID uuid.UUID, delta int) error {
	return b.carts.AddQuantity(ctx, b.userID, productID, delta)
}

func (b *persistedBackend) Remove(ctx context.Context, productID uuid.UUID) error {
	return b.carts.Remove(ctx, b.userID, productID)
}

func (b *persistedBackend) Clear(ctx context.Context) error {
	return b.carts.Clear(ctx, b.userID)
}

func (b *persistedBackend) ClampsToStock() bool { return false }

// sessionBackend binds the Redis cart to a session token
type sessionBackend struct {
	store GuestCartStore
	token string
}

func (b *sessionBackend) Lines(ctx context.Context) ([]domain.CartLine, error) {
	return b.store.Lines(ctx, b.token)
}

func (b *sessionBackend) GetQuantity(ctx context.Context, productID uuid.UUID) (int, error) {
	return b.store.GetQuantity(ctx, b.token, productID)
}

func (b *sessionBackend) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	return b.store.SetQuantity(ctx, b.token, productID, quantity)
}

func (b *sessionBackend) AddQuantity(ctx context.Context, productID uuid.UUID, delta int) error {
	return b.store.AddQuantity(ctx, b.token, productID, delta)
}

func (b *sessionBackend) Remove(ctx context.Context, productID uuid.UUID) error {
	return b.store.Remove(ctx, b.token, productID)
}

func (b *sessionBackend) Clear(ctx context.Context) error {
	return b.store.Clear(ctx, b.token)
}

func (b *sessionBackend) ClampsToStock() bool { return true }

package service

import (
	"context"
	"database/sql"
	"testing"

	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// In-memory fakes shared by the service tests

type fakeProductRepo struct {
	products map[uuid.UUID]*domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*domain.Product)}
}

func (f *fakeProductRepo) add(name string, stock int, price string) *domain.Product {
	p := &domain.Product{
		ID:            uuid.New(),
		SKU:           uuid.New().String()[:8],
		Name:          name,
		Price:         decimal.RequireFromString(price),
		CategoryID:    uuid.New(),
		StockQuantity: stock,
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeProductRepo) Create(ctx context.Context, product *domain.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) Update(ctx context.Context, product *domain.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	out := make(map[uuid.UUID]*domain.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeProductRepo) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	var all []*domain.Product
	for _, p := range f.products {
		all = append(all, p)
	}
	return all, len(all), nil
}

func (f *fakeProductRepo) FindLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	var low []*domain.Product
	for _, p := range f.products {
		if p.StockQuantity <= threshold {
			low = append(low, p)
		}
	}
	return low, nil
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, tx *sql.Tx, id uuid.UUID, quantity int) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.StockQuantity < quantity {
		return repository.ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	return nil
}

func (f *fakeProductRepo) IncrementStock(ctx context.Context, tx *sql.Tx, id uuid.UUID, quantity int) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.StockQuantity += quantity
	return nil
}

type fakeCartRepo struct {
	lines map[uuid.UUID]map[uuid.UUID]int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{lines: make(map[uuid.UUID]map[uuid.UUID]int)}
}

func (f *fakeCartRepo) cart(userID uuid.UUID) map[uuid.UUID]int {
	if f.lines[userID] == nil {
		f.lines[userID] = make(map[uuid.UUID]int)
	}
	return f.lines[userID]
}

func (f *fakeCartRepo) Lines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	var out []domain.CartLine
	for productID, qty := range f.cart(userID) {
		out = append(out, domain.CartLine{ProductID: productID, Quantity: qty})
	}
	return out, nil
}

func (f *fakeCartRepo) GetQuantity(ctx context.Context, userID, productID uuid.UUID) (int, error) {
	return f.cart(userID)[productID], nil
}

func (f *fakeCartRepo) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	f.cart(userID)[productID] = quantity
	return nil
}

func (f *fakeCartRepo) AddQuantity(ctx context.Context, userID, productID uuid.UUID, delta int) error {
	f.cart(userID)[productID] += delta
	return nil
}

func (f *fakeCartRepo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	delete(f.cart(userID), productID)
	return nil
}

func (f *fakeCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	delete(f.lines, userID)
	return nil
}

func (f *fakeCartRepo) ClearTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	return f.Clear(ctx, userID)
}

type fakeGuestStore struct {
	carts map[string]map[uuid.UUID]int
}

func newFakeGuestStore() *fakeGuestStore {
	return &fakeGuestStore{carts: make(map[string]map[uuid.UUID]int)}
}

func (f *fakeGuestStore) cart(token string) map[uuid.UUID]int {
	if f.carts[token] == nil {
		f.carts[token] = make(map[uuid.UUID]int)
	}
	return f.carts[token]
}

func (f *fakeGuestStore) Lines(ctx context.Context, token string) ([]domain.CartLine, error) {
	var out []domain.CartLine
	for productID, qty := range f.cart(token) {
		out = append(out, domain.CartLine{ProductID: productID, Quantity: qty})
	}
	return out, nil
}

func (f *fakeGuestStore) GetQuantity(ctx context.Context, token string, productID uuid.UUID) (int, error) {
	return f.cart(token)[productID], nil
}

func (f *fakeGuestStore) SetQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) error {
	f.cart(token)[productID] = quantity
	return nil
}

func (f *fakeGuestStore) AddQuantity(ctx context.Context, token string, productID uuid.UUID, delta int) error {
	f.cart(token)[productID] += delta
	return nil
}

func (f *fakeGuestStore) Remove(ctx context.Context, token string, productID uuid.UUID) error {
	delete(f.cart(token), productID)
	return nil
}

func (f *fakeGuestStore) Clear(ctx context.Context, token string) error {
	delete(f.carts, token)
	return nil
}

func newTestCartService() (CartService, *fakeProductRepo, *fakeCartRepo, *fakeGuestStore) {
	products := newFakeProductRepo()
	carts := newFakeCartRepo()
	sessions := newFakeGuestStore()
	return NewCartService(products, carts, sessions), products, carts, sessions
}

func TestProperty_AddAccumulatesUpToStock(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeated adds accumulate and never exceed stock", prop.ForAll(
		func(stock int, first int, second int) bool {
			svc, products, carts, _ := newTestCartService()
			product := products.add("Widget", stock, "9.99")
			owner := domain.RegisteredOwner(uuid.New())
			ctx := context.Background()

			err1 := svc.Add(ctx, owner, product.ID, first)
			err2 := svc.Add(ctx, owner, product.ID, second)

			got := carts.cart(owner.UserID)[product.ID]

			// Whatever succeeded must be stored exactly; whatever failed
			// must have left the line untouched
			want := 0
			if err1 == nil {
				want += first
			}
			if err2 == nil {
				want += second
			}
			if got != want {
				t.Logf("FAIL: stored %d, want %d (err1=%v err2=%v)", got, want, err1, err2)
				return false
			}

			return got <= stock
		},
		gen.IntRange(1, 200),
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCartAdd_RejectsInvalidQuantity(t *testing.T) {
	svc, products, _, _ := newTestCartService()
	product := products.add("Widget", 50, "5.00")
	owner := domain.RegisteredOwner(uuid.New())
	ctx := context.Background()

	for _, qty := range []int{0, -1, MaxLineQuantity + 1} {
		if err := svc.Add(ctx, owner, product.ID, qty); err != domain.ErrInvalidQuantity {
			t.Errorf("Add(%d): expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestCartAdd_StockExceededLeavesCartUnchanged(t *testing.T) {
	svc, products, carts, _ := newTestCartService()
	product := products.add("Scarce", 5, "12.50")
	owner := domain.RegisteredOwner(uuid.New())
	ctx := context.Background()

	if err := svc.Add(ctx, owner, product.ID, 4); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	err := svc.Add(ctx, owner, product.ID, 3)
	stockErr, ok := domain.IsStockExceeded(err)
	if !ok {
		t.Fatalf("expected StockExceededError, got %v", err)
	}
	if stockErr.ProductName != "Scarce" || stockErr.Available != 5 {
		t.Errorf("unexpected error detail: %+v", stockErr)
	}

	if got := carts.cart(owner.UserID)[product.ID]; got != 4 {
		t.Errorf("failed add must not change the cart: got %d, want 4", got)
	}
}

func TestUpdateQuantity_ZeroOrLessRemovesLine(t *testing.T) {
	svc, products, carts, sessions := newTestCartService()
	product := products.add("Widget", 50, "5.00")
	ctx := context.Background()

	registered := domain.RegisteredOwner(uuid.New())
	anonymous := domain.AnonymousOwner(uuid.New().String())

	for _, owner := range []domain.CartOwner{registered, anonymous} {
		if err := svc.Add(ctx, owner, product.ID, 3); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	for _, qty := range []int{0, -5} {
		for _, owner := range []domain.CartOwner{registered, anonymous} {
			svc.Add(ctx, owner, product.ID, 1)
			if err := svc.UpdateQuantity(ctx, owner, product.ID, qty); err != nil {
				t.Fatalf("UpdateQuantity(%d) failed: %v", qty, err)
			}
		}
	}

	if len(carts.cart(registered.UserID)) != 0 {
		t.Error("expected registered cart line removed")
	}
	if len(sessions.cart(anonymous.SessionToken)) != 0 {
		t.Error("expected anonymous cart line removed")
	}
}

func TestMaterialize_DropsMissingProducts(t *testing.T) {
	svc, products, carts, _ := newTestCartService()
	kept := products.add("Kept", 10, "3.00")
	removed := products.add("Removed", 10, "4.00")
	owner := domain.RegisteredOwner(uuid.New())
	ctx := context.Background()

	carts.cart(owner.UserID)[kept.ID] = 2
	carts.cart(owner.UserID)[removed.ID] = 1
	delete(products.products, removed.ID)

	view, err := svc.Materialize(ctx, owner)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	if len(view.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Lines))
	}
	if view.Lines[0].Product.ID != kept.ID {
		t.Error("expected the surviving product")
	}
	if !view.Subtotal.Equal(decimal.RequireFromString("6.00")) {
		t.Errorf("expected subtotal 6.00, got %s", view.Subtotal)
	}
}

func TestMaterialize_ClampsAnonymousCartsOnly(t *testing.T) {
	svc, products, carts, sessions := newTestCartService()
	product := products.add("Shrinking", 10, "2.00")
	ctx := context.Background()

	registered := domain.RegisteredOwner(uuid.New())
	anonymous := domain.AnonymousOwner(uuid.New().String())

	carts.cart(registered.UserID)[product.ID] = 8
	sessions.cart(anonymous.SessionToken)[product.ID] = 8

	// Stock drops below both stored quantities
	product.StockQuantity = 3

	registeredView, err := svc.Materialize(ctx, registered)
	if err != nil {
		t.Fatalf("Materialize(registered) failed: %v", err)
	}
	if registeredView.Lines[0].Quantity != 8 {
		t.Errorf("persisted cart must keep stored quantity 8, got %d", registeredView.Lines[0].Quantity)
	}

	anonymousView, err := svc.Materialize(ctx, anonymous)
	if err != nil {
		t.Fatalf("Materialize(anonymous) failed: %v", err)
	}
	if anonymousView.Lines[0].Quantity != 3 {
		t.Errorf("anonymous cart must clamp to stock 3, got %d", anonymousView.Lines[0].Quantity)
	}
	if !anonymousView.Subtotal.Equal(decimal.RequireFromString("6.00")) {
		t.Errorf("clamped subtotal must use the clamped quantity, got %s", anonymousView.Subtotal)
	}
}

func TestProperty_TransferGuestCartMergesQuantities(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("guest quantities fold into the persisted cart and the guest cart empties", prop.ForAll(
		func(persistedQty int, guestQty int, extraQty int) bool {
			svc, products, carts, sessions := newTestCartService()
			shared := products.add("Shared", 1000, "1.00")
			guestOnly := products.add("GuestOnly", 1000, "1.00")
			ctx := context.Background()

			userID := uuid.New()
			token := uuid.New().String()

			carts.cart(userID)[shared.ID] = persistedQty
			sessions.cart(token)[shared.ID] = guestQty
			sessions.cart(token)[guestOnly.ID] = extraQty

			if err := svc.TransferGuestCart(ctx, token, userID); err != nil {
				t.Logf("FAIL: transfer errored: %v", err)
				return false
			}

			if got := carts.cart(userID)[shared.ID]; got != persistedQty+guestQty {
				t.Logf("FAIL: shared line %d, want %d", got, persistedQty+guestQty)
				return false
			}
			if got := carts.cart(userID)[guestOnly.ID]; got != extraQty {
				t.Logf("FAIL: guest-only line %d, want %d", got, extraQty)
				return false
			}

			remaining, _ := sessions.Lines(ctx, token)
			return len(remaining) == 0
		},
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

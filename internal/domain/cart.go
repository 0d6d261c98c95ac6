package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartOwner identifies who a cart belongs to: a registered user or an
// anonymous visitor holding a cart session token. It is passed explicitly
// through every cart and checkout operation so that there is exactly one
// implementation of each operation instead of parallel guest/user branches.
type CartOwner struct {
	UserID       uuid.UUID
	SessionToken string
}

// RegisteredOwner returns a CartOwner for an authenticated user
func RegisteredOwner(userID uuid.UUID) CartOwner {
	return CartOwner{UserID: userID}
}

// AnonymousOwner returns a CartOwner for a guest session
func AnonymousOwner(token string) CartOwner {
	return CartOwner{SessionToken: token}
}

// IsRegistered reports whether the owner is an authenticated user
func (o CartOwner) IsRegistered() bool {
	return o.UserID != uuid.Nil
}

// CartLine is one (product, quantity) pairing within a cart
type CartLine struct {
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// CartViewLine is a cart line joined with live product data. Quantity is the
// effective quantity after clamping (anonymous carts only).
type CartViewLine struct {
	Product  *Product        `json:"product"`
	Quantity int             `json:"quantity"`
	LineSum  decimal.Decimal `json:"line_sum"`
}

// CartView is the resolved cart presented to callers: lines with product
// data and the computed subtotal.
type CartView struct {
	Lines    []CartViewLine  `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// IsEmpty reports whether the view contains no lines
func (v *CartView) IsEmpty() bool {
	return len(v.Lines) == 0
}

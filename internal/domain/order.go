package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. Orders move pending -> processing -> shipped -> delivered,
// or to cancelled from pending/processing.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ShippingDetails is the embedded address snapshot stored on guest orders
type ShippingDetails struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
}

// Order is immutable once created except for its status and cancellation
// timestamp. Total is snapshotted at creation and never recomputed from lines.
type Order struct {
	ID                   uuid.UUID        `json:"id" db:"id"`
	UserID               *uuid.UUID       `json:"user_id" db:"user_id"`
	GuestEmail           *string          `json:"guest_email" db:"guest_email"`
	GuestName            *string          `json:"guest_name" db:"guest_name"`
	Total                decimal.Decimal  `json:"total" db:"total"`
	Status               string           `json:"status" db:"status"`
	ShippingAddressID    *uuid.UUID       `json:"shipping_address_id" db:"shipping_address_id"`
	GuestShippingAddress *ShippingDetails `json:"guest_shipping_address" db:"guest_shipping_address"`
	PaymentMethod        string           `json:"payment_method" db:"payment_method"`
	Notes                string           `json:"notes" db:"notes"`
	CancelledAt          *time.Time       `json:"cancelled_at" db:"cancelled_at"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`

	Lines []OrderLine `json:"lines,omitempty"`
}

// IsGuestOrder reports whether the order has no associated registered user
func (o *Order) IsGuestOrder() bool {
	return o.UserID == nil
}

// CanBeCancelled reports whether the order is still cancellable
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// OrderLine snapshots a product's price and quantity at order time. Created
// once, never mutated.
type OrderLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`

	Product *Product `json:"product,omitempty"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	SKU           string          `json:"sku" db:"sku"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	CategoryID    uuid.UUID       `json:"category_id" db:"category_id"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	Featured      bool            `json:"featured" db:"featured"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// InStock reports whether at least one unit is available
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

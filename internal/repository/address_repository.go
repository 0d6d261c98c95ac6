package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopfront/internal/domain"

	"github.com/google/uuid"
)

var ErrAddressNotFound = errors.New("address not found")

const addressColumns = `id, user_id, type, name, phone, street, city, state, zip, country, is_default, created_at, updated_at`

// AddressRepository defines the interface for address book data access
type AddressRepository interface {
	Create(ctx context.Context, address *domain.Address) error
	Update(ctx context.Context, address *domain.Address) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
	UnsetDefaults(ctx context.Context, userID uuid.UUID, addrType string) error
	SetDefault(ctx context.Context, id uuid.UUID) error
}

type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository creates a new instance of AddressRepository
func NewAddressRepository(db *sql.DB) AddressRepository {
	return &addressRepository{db: db}
}

// Create inserts a new address
func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	query := `
		INSERT INTO addresses (id, user_id, type, name, phone, street, city, state, zip, country, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		address.ID,
		address.UserID,
		address.Type,
		address.Name,
		address.Phone,
		address.Street,
		address.City,
		address.State,
		address.Zip,
		address.Country,
		address.IsDefault,
		address.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}

	return nil
}

// Update updates an existing address
func (r *addressRepository) Update(ctx context.Context, address *domain.Address) error {
	query := `
		UPDATE addresses
		SET type = $2, name = $3, phone = $4, street = $5, city = $6,
		    state = $7, zip = $8, country = $9, is_default = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		address.ID,
		address.Type,
		address.Name,
		address.Phone,
		address.Street,
		address.City,
		address.State,
		address.Zip,
		address.Country,
		address.IsDefault,
	)

	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAddressNotFound
	}

	return nil
}

// Delete removes an address
func (r *addressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAddressNotFound
	}

	return nil
}

// FindByID retrieves an address by ID
func (r *addressRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	query := fmt.Sprintf(`SELECT %s FROM addresses WHERE id = $1`, addressColumns)

	address, err := scanAddress(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to find address by ID: %w", err)
	}

	return address, nil
}

// ListByUser retrieves all addresses for a user, newest first
func (r *addressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	query := fmt.Sprintf(`SELECT %s FROM addresses WHERE user_id = $1 ORDER BY created_at DESC`, addressColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []*domain.Address{}
	for rows.Next() {
		address, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, address)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// UnsetDefaults clears the default flag on all of a user's addresses of the
// given type
func (r *addressRepository) UnsetDefaults(ctx context.Context, userID uuid.UUID, addrType string) error {
	query := `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND type = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, addrType); err != nil {
		return fmt.Errorf("failed to unset default addresses: %w", err)
	}

	return nil
}

// SetDefault marks an address as the default
func (r *addressRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE addresses SET is_default = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAddressNotFound
	}

	return nil
}

func scanAddress(row interface{ Scan(...any) error }) (*domain.Address, error) {
	address := &domain.Address{}
	err := row.Scan(
		&address.ID,
		&address.UserID,
		&address.Type,
		&address.Name,
		&address.Phone,
		&address.Street,
		&address.City,
		&address.State,
		&address.Zip,
		&address.Country,
		&address.IsDefault,
		&address.CreatedAt,
		&address.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return address, nil
}

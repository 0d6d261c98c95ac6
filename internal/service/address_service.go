package service

import (
	"context"
	"fmt"
	"time"

	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
)

// AddressService manages a user's address book. Every operation enforces that
// the address belongs to the acting user.
type AddressService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
	Create(ctx context.Context, address *domain.Address) (*domain.Address, error)
	Update(ctx context.Context, userID uuid.UUID, address *domain.Address) (*domain.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
}

type addressService struct {
	addresses repository.AddressRepository
}

// NewAddressService creates a new instance of AddressService
func NewAddressService(addresses repository.AddressRepository) AddressService {
	return &addressService{addresses: addresses}
}

// List retrieves the user's saved addresses
func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	return s.addresses.ListByUser(ctx, userID)
}

// Create saves a new address. Marking it default clears the previous default
// of the same type first.
func (s *addressService) Create(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	address.ID = uuid.New()
	address.CreatedAt = time.Now()
	address.UpdatedAt = address.CreatedAt

	if address.IsDefault {
		if err := s.addresses.UnsetDefaults(ctx, address.UserID, address.Type); err != nil {
			return nil, fmt.Errorf("failed to unset previous default: %w", err)
		}
	}

	if err := s.addresses.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	return address, nil
}

// Update modifies an existing address owned by the user
func (s *addressService) Update(ctx context.Context, userID uuid.UUID, address *domain.Address) (*domain.Address, error) {
	existing, err := s.addresses.FindByID(ctx, address.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	address.UserID = userID
	address.UpdatedAt = time.Now()

	if address.IsDefault && !existing.IsDefault {
		if err := s.addresses.UnsetDefaults(ctx, userID, address.Type); err != nil {
			return nil, fmt.Errorf("failed to unset previous default: %w", err)
		}
	}

	if err := s.addresses.Update(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}

	return address, nil
}

// Delete removes an address owned by the user
func (s *addressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	existing, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return domain.ErrUnauthorized
	}
	return s.addresses.Delete(ctx, addressID)
}

// SetDefault marks the address as the default for its type, clearing any
// previous default of that type
func (s *addressService) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	existing, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return domain.ErrUnauthorized
	}

	if err := s.addresses.UnsetDefaults(ctx, userID, existing.Type); err != nil {
		return fmt.Errorf("failed to unset previous default: %w", err)
	}
	return s.addresses.SetDefault(ctx, addressID)
}

package transport

import (
	"net/http"

	"shopfront/internal/domain"
	"shopfront/internal/middleware"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressRequest represents the create/update address payload
type AddressRequest struct {
	Type      string `json:"type" validate:"required,oneof=shipping billing"`
	Name      string `json:"name" validate:"required"`
	Phone     string `json:"phone"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state"`
	Zip       string `json:"zip" validate:"required"`
	Country   string `json:"country" validate:"required"`
	IsDefault bool   `json:"is_default"`
}

// AddressHandler handles HTTP requests for a user's address book
type AddressHandler struct {
	addressService service.AddressService
	logger         *zap.Logger
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(addressService service.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{addressService: addressService, logger: logger}
}

// RegisterRoutes registers all address routes; all require authentication
func (h *AddressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/addresses", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.ListAddresses)
		r.Post("/", h.CreateAddress)
		r.Put("/{addressID}", h.UpdateAddress)
		r.Delete("/{addressID}", h.DeleteAddress)
		r.Post("/{addressID}/default", h.SetDefault)
	})
}

// ListAddresses returns the user's saved addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addresses, err := h.addressService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list addresses", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, addresses)
}

// CreateAddress saves a new address
func (h *AddressHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	address, ok := h.decodeAddress(w, r)
	if !ok {
		return
	}
	address.UserID = userID

	created, err := h.addressService.Create(r.Context(), address)
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// UpdateAddress modifies one of the user's addresses
func (h *AddressHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addressID, err := uuid.Parse(chi.URLParam(r, "addressID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid address ID")
		return
	}

	address, ok := h.decodeAddress(w, r)
	if !ok {
		return
	}
	address.ID = addressID

	updated, err := h.addressService.Update(r.Context(), userID, address)
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, updated)
}

// DeleteAddress removes one of the user's addresses
func (h *AddressHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addressID, err := uuid.Parse(chi.URLParam(r, "addressID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid address ID")
		return
	}

	if err := h.addressService.Delete(r.Context(), userID, addressID); err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "address deleted"})
}

// SetDefault marks the address as the default for its type
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addressID, err := uuid.Parse(chi.URLParam(r, "addressID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid address ID")
		return
	}

	if err := h.addressService.SetDefault(r.Context(), userID, addressID); err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "default address updated"})
}

func (h *AddressHandler) decodeAddress(w http.ResponseWriter, r *http.Request) (*domain.Address, bool) {
	var req AddressRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	return &domain.Address{
		Type:      req.Type,
		Name:      req.Name,
		Phone:     req.Phone,
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		Zip:       req.Zip,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	}, true
}

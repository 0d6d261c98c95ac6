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

// GuestShippingRequest is the shipping address a guest types at checkout
type GuestShippingRequest struct {
	Name    string `json:"name" validate:"required"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required"`
	Phone   string `json:"phone"`
}

// CheckoutRequest represents the checkout payload. Registered users pass a
// saved address ID; guests pass contact details and a shipping address.
type CheckoutRequest struct {
	PaymentMethod     string                `json:"payment_method" validate:"required"`
	Notes             string                `json:"notes" validate:"max=1000"`
	ShippingAddressID string                `json:"shipping_address_id"`
	GuestEmail        string                `json:"guest_email" validate:"omitempty,email"`
	GuestName         string                `json:"guest_name"`
	GuestShipping     *GuestShippingRequest `json:"guest_shipping"`
}

// CheckoutHandler handles the cart-to-order conversion
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, logger: logger}
}

// RegisterRoutes registers the checkout route
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, optionalAuth, cartSession func(http.Handler) http.Handler) {
	r.Route("/api/checkout", func(r chi.Router) {
		r.Use(cartSession)
		r.Use(optionalAuth)

		r.Post("/", h.Checkout)
	})
}

// Checkout places an order from the owner's current cart
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "no cart session")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.CheckoutInput{
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	if owner.IsRegistered() {
		if req.ShippingAddressID != "" {
			addressID, err := uuid.Parse(req.ShippingAddressID)
			if err != nil {
				middleware.RespondWithError(w, http.StatusBadRequest, "invalid shipping address ID")
				return
			}
			input.ShippingAddressID = &addressID
		}
	} else {
		if req.GuestEmail == "" || req.GuestName == "" || req.GuestShipping == nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "guest checkout requires email, name and shipping address")
			return
		}
		input.GuestEmail = req.GuestEmail
		input.GuestName = req.GuestName
		input.GuestShipping = &domain.ShippingDetails{
			Name:    req.GuestShipping.Name,
			Street:  req.GuestShipping.Street,
			City:    req.GuestShipping.City,
			State:   req.GuestShipping.State,
			Zip:     req.GuestShipping.Zip,
			Country: req.GuestShipping.Country,
			Phone:   req.GuestShipping.Phone,
		}
	}

	order, err := h.checkoutService.PlaceOrder(r.Context(), owner, input)
	if err != nil {
		if err == service.ErrInvalidPaymentMethod {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		middleware.RespondWithDomainError(w, err)
		return
	}

	h.logger.Info("Checkout completed", zap.String("order_id", order.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

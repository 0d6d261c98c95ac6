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

// AddToCartRequest represents the add-to-cart payload
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required"`
}

// UpdateCartLineRequest represents the quantity update payload. Zero and
// negative quantities remove the line.
type UpdateCartLineRequest struct {
	Quantity int `json:"quantity"`
}

// CartHandler handles HTTP requests for cart operations. Every route works
// for both guests and logged-in users; the optional auth and cart session
// middleware decide which cart the request acts on.
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, logger: logger}
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router, optionalAuth, cartSession func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(cartSession)
		r.Use(optionalAuth)

		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Delete("/", h.ClearCart)
	})
}

// GetCart returns the owner's cart joined with live product data
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "no cart session")
		return
	}

	view, err := h.cartService.Materialize(r.Context(), owner)
	if err != nil {
		h.logger.Error("Failed to load cart", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// AddItem adds a quantity of a product to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "no cart session")
		return
	}

	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.cartService.Add(r.Context(), owner, productID, req.Quantity); err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}

	h.respondWithCart(w, r, owner)
}

// UpdateItem sets a line's quantity; zero or less removes the line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "no cart session")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req UpdateCartLineRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.cartService.UpdateQuantity(r.Context(), owner, productID, req.Quantity); err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}

	h.respondWithCart(w, r, owner)
}

// RemoveItem removes a line from the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "no cart session")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.cartService.Remove(r.Context(), owner, productID); err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}

	h.respondWithCart(w, r, owner)
}

// ClearCart removes every line from the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "no cart session")
		return
	}

	if err := h.cartService.Clear(r.Context(), owner); err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

// respondWithCart returns the refreshed cart view after a mutation
func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, owner domain.CartOwner) {
	view, err := h.cartService.Materialize(r.Context(), owner)
	if err != nil {
		h.logger.Error("Failed to reload cart after mutation", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

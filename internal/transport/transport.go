// Package transport contains the HTTP handlers. Handlers decode and validate
// payloads, resolve the acting cart owner, call services, and translate
// business errors to HTTP statuses.
package transport

import (
	"context"
	"net/http"
	"strconv"

	"shopfront/internal/domain"
	"shopfront/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginatedResponse wraps a list payload with paging metadata
type PaginatedResponse struct {
	Data     interface{} `json:"data"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int         `json:"total"`
}

func profileOf(user *domain.User) UserProfile {
	return UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
}

// ownerFromContext resolves who the cart operations act for: the
// authenticated user when present, otherwise the request's cart session
// token. Requests with neither cannot hold a cart.
func ownerFromContext(ctx context.Context) (domain.CartOwner, bool) {
	if userID, ok := middleware.GetUserID(ctx); ok {
		return domain.RegisteredOwner(userID), true
	}
	if token, ok := middleware.GetCartToken(ctx); ok {
		return domain.AnonymousOwner(token), true
	}
	return domain.CartOwner{}, false
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CartSessionCookie is the cookie carrying a guest's cart session token
const CartSessionCookie = "cart_session"

// CartSessionHeader lets clients without cookie support pass the token
const CartSessionHeader = "X-Cart-Session"

const cartTokenKey contextKey = "cart_token"

// CartSessionMiddleware ensures every request carries a cart session token.
// An existing token is taken from the cookie or header; otherwise a fresh
// token is minted and set as a cookie. The token identifies an anonymous
// cart; authenticated requests keep their token so the cart can be folded
// into the account at login.
func CartSessionMiddleware(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if cookie, err := r.Cookie(CartSessionCookie); err == nil {
				token = cookie.Value
			}
			if token == "" {
				token = r.Header.Get(CartSessionHeader)
			}

			if _, err := uuid.Parse(token); err != nil {
				token = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     CartSessionCookie,
					Value:    token,
					Path:     "/",
					Expires:  time.Now().Add(ttl),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), cartTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCartToken extracts the cart session token from request context
func GetCartToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(cartTokenKey).(string)
	return token, ok && token != ""
}

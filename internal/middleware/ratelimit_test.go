package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newRateLimitedHandler(t *testing.T, requestsPerWindow int) http.Handler {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: requestsPerWindow,
		Window:            time.Second,
		KeyPrefix:         "ratelimit",
	}

	return RateLimitMiddleware(client, config, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
}

func TestProperty_RateLimitBlocksExcessRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exactly the window budget succeeds, the rest get 429", prop.ForAll(
		func(requestsPerWindow int, excess int) bool {
			handler := newRateLimitedHandler(t, requestsPerWindow)

			allowed := 0
			blocked := 0
			for i := 0; i < requestsPerWindow+excess; i++ {
				req := httptest.NewRequest("GET", "/api/products", nil)
				req.RemoteAddr = "10.0.0.7:4000"
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					allowed++
				case http.StatusTooManyRequests:
					blocked++
				}
			}

			return allowed == requestsPerWindow && blocked == excess
		},
		gen.IntRange(5, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_HeadersReportRemainingBudget(t *testing.T) {
	handler := newRateLimitedHandler(t, 10)

	req := httptest.NewRequest("GET", "/api/products", nil)
	req.RemoteAddr = "10.0.0.8:4000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-RateLimit-Limit"); got != "10" {
		t.Errorf("expected limit header 10, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "9" {
		t.Errorf("expected remaining header 9, got %q", got)
	}
}

func TestRateLimit_BlockedResponseCarriesRetryAfter(t *testing.T) {
	handler := newRateLimitedHandler(t, 1)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if i == 1 {
			if w.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", w.Code)
			}
			if w.Header().Get("Retry-After") == "" {
				t.Error("expected a Retry-After header on the blocked response")
			}
		}
	}
}

func TestRateLimit_AuthenticatedUsersHaveTheirOwnBudget(t *testing.T) {
	handler := newRateLimitedHandler(t, 1)

	// Exhaust the address budget first
	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.RemoteAddr = "10.0.0.10:4000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first anonymous request must pass, got %d", w.Code)
	}

	// Same address, but an authenticated user is keyed separately
	authed := httptest.NewRequest("GET", "/api/orders", nil)
	authed.RemoteAddr = "10.0.0.10:4000"
	ctx := context.WithValue(authed.Context(), UserIDKey, uuid.New())
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authed.WithContext(ctx))

	if w.Code != http.StatusOK {
		t.Errorf("authenticated user behind the same address must have a fresh budget, got %d", w.Code)
	}
}

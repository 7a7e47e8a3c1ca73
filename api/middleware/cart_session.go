package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartSessionHeader carries the anonymous cart token in both directions.
const CartSessionHeader = "X-Cart-Session"

const maxCartSessionLen = 64

// CartSession reads the cart token from the request or mints one, and echoes
// it back so the client can persist it.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(CartSessionHeader))
			if !validCartToken(token) {
				token = uuid.NewString()
			}
			w.Header().Set(CartSessionHeader, token)

			ctx := WithCartSession(r.Context(), token)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validCartToken(token string) bool {
	if token == "" || len(token) > maxCartSessionLen {
		return false
	}
	for _, c := range token {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

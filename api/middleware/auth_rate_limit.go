package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// RateLimitStore counts attempts in fixed windows. *redis.Client satisfies it.
type RateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// AuthRateLimitPolicy names a throttled surface (login, signup, otp) and its
// per-window budgets. A zero limit disables that dimension.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// maxRateLimitedBody bounds how much of a credential request is buffered to
// find the email.
const maxRateLimitedBody = 64 << 10

type rateLimiter struct {
	policy AuthRateLimitPolicy
	store  RateLimitStore
	logg   *logger.Logger
}

// AuthRateLimit enforces per-IP and per-email fixed windows. The email comes
// from the JSON body, or from the authenticated identity when the body has
// none; only its sha256 reaches Redis and the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		rl := rateLimiter{policy: policy, store: store, logg: logg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" && !rl.admit(ctx, w, "ip", ip, policy.ipLimit) {
					return
				}
			}

			if policy.emailLimit > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxRateLimitedBody))
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

				email := emailFromBody(body)
				if email == "" {
					email = normalizeEmail(EmailFromContext(ctx))
				}
				if email != "" && !rl.admit(ctx, w, "email", hashValue(email), policy.emailLimit) {
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// admit counts one attempt against dimension:subject and answers the request
// itself when the attempt is refused or the store fails.
func (rl rateLimiter) admit(ctx context.Context, w http.ResponseWriter, dimension, subject string, limit int) bool {
	scope := rl.policy.name + ":" + dimension + ":" + subject
	count, err := rl.store.IncrWithTTL(ctx, rl.store.RateLimitKey(scope), rl.policy.window)
	if err != nil {
		responses.WriteError(ctx, rl.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if count <= int64(limit) {
		return true
	}

	if rl.logg != nil {
		rl.logg.Warn(rl.logg.WithFields(ctx, map[string]any{
			"policy":         rl.policy.name,
			"scope":          dimension,
			"subject":        subject,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(rl.policy.window.Seconds()),
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(rl.policy.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
	return false
}

// clientIP prefers the left-most X-Forwarded-For hop, then X-Real-IP, then
// the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for part := range strings.SplitSeq(xff, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return normalizeEmail(body.Email)
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/custconnect/custconnect-backend/api/responses"
	pkgerrors "github.com/custconnect/custconnect-backend/pkg/errors"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

const rateLimitBodyCap = 64 << 10

type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy defines the throttling parameters for a credential
// surface (login, register, resend).
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) scope(kind, value string) string {
	name := p.name
	if name == "" {
		name = "auth"
	}
	return fmt.Sprintf("%s:%s:%s", name, kind, value)
}

// AuthRateLimit throttles credential endpoints per source IP and per target
// email, so a single mailbox cannot be hammered from many addresses and one
// address cannot spray many mailboxes.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || !policy.enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					if !allow(ctx, limiter, logg, policy.scope("ip", ip), policy.ipLimit, policy.window) {
						responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts"))
						return
					}
				}
			}

			if policy.emailLimit > 0 {
				email, restored := peekEmail(r)
				r.Body = restored
				if email != "" {
					if !allow(ctx, limiter, logg, policy.scope("email", hashEmail(email)), policy.emailLimit, policy.window) {
						responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts"))
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allow fails open: when the limiter backend is down, auth traffic passes
// rather than locking everyone out.
func allow(ctx context.Context, limiter RateLimiter, logg *logger.Logger, scope string, limit int, window time.Duration) bool {
	ok, _, err := limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
	if err != nil {
		if logg != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{
				"scope": scope,
				"error": err.Error(),
			}), "auth rate limit check failed")
		}
		return true
	}
	return ok
}

func peekEmail(r *http.Request) (string, io.ReadCloser) {
	if r.Body == nil {
		return "", http.NoBody
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, rateLimitBodyCap))
	r.Body.Close()
	restored := io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return "", restored
	}

	var probe struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", restored
	}
	return strings.ToLower(strings.TrimSpace(probe.Email)), restored
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/lifecycle"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

type contextKey string

const claimsKey contextKey = "claims"

// DegradedHeader is set on every response once persistence has failed.
const DegradedHeader = "X-Persistence-Degraded"

// SessionValidator reports whether a token's session still matches a
// registered user.
type SessionValidator func(sess model.Session, issuedAt time.Time) bool

// SessionMiddleware resolves the acting session from an optional bearer
// token. Requests without one act anonymously. A bad or revoked token is
// rejected, as is one whose user no longer matches when valid is set.
func SessionMiddleware(secret string, tokens *store.TokenList, valid SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(lifecycle.WithSession(r.Context(), nil)))
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				jsonError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			if tokens != nil && claims.ID != "" {
				revoked, err := tokens.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					slog.Error("checking token revocation", "error", err)
					jsonError(w, http.StatusInternalServerError, "internal error")
					return
				}
				if revoked {
					jsonError(w, http.StatusUnauthorized, "token has been revoked")
					return
				}
			}

			if valid != nil {
				var issued time.Time
				if claims.IssuedAt != nil {
					issued = claims.IssuedAt.Time
				}
				if !valid(*claims.Session(), issued) {
					jsonError(w, http.StatusUnauthorized, "session no longer valid")
					return
				}
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = lifecycle.WithSession(ctx, claims.Session())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that checks if the user has at least the given role.
func RequireRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !model.RoleAtLeast(claims.Role, minimum) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// statusRecorder wraps http.ResponseWriter to capture the status code and
// flag responses written while persistence is degraded.
type statusRecorder struct {
	http.ResponseWriter
	status   int
	wrote    bool
	degraded func() bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.wrote = true
		r.status = code
		if r.degraded != nil && r.degraded() {
			r.Header().Set(DegradedHeader, "true")
		}
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(degraded func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, degraded: degraded}
			next.ServeHTTP(rec, r)
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.RequestURI(),
				"status", rec.status,
				"duration", time.Since(start).Round(time.Millisecond),
			)
		})
	}
}

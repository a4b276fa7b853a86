package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"graminsetu/internal/audit"
	id "graminsetu/pkg/domain"
	dErrors "graminsetu/pkg/domain-errors"
	"graminsetu/pkg/platform/httputil"
	"graminsetu/pkg/requestcontext"
)

// Claims is what the token validator extracts from a session token.
type Claims struct {
	UserID id.UserID
	Role   string
}

// TokenValidator validates session tokens.
type TokenValidator interface {
	Validate(token string) (Claims, error)
}

// UserDirectory resolves a raw user id to its role. Used only by the
// legacy header path.
type UserDirectory interface {
	Lookup(ctx context.Context, rawID string) (Claims, error)
}

// Authenticate resolves the caller's identity and role into the context.
//
// Preferred path: Authorization: Bearer <jwt>. Legacy path: a bare user-id
// header, kept for compatibility with existing clients; it asserts identity
// without proof, so every use is logged and audited. Requests with neither
// continue anonymously; role guards reject them where needed.
func Authenticate(validator TokenValidator, directory UserDirectory, logger *slog.Logger, auditor *audit.Emitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				claims, err := validator.Validate(token)
				if err != nil {
					logger.WarnContext(ctx, "invalid session token",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
					return
				}
				ctx = requestcontext.WithUserID(ctx, claims.UserID)
				ctx = requestcontext.WithRole(ctx, claims.Role)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if rawID := r.Header.Get("user-id"); rawID != "" {
				claims, err := directory.Lookup(ctx, rawID)
				if err != nil {
					logger.WarnContext(ctx, "legacy header auth failed",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unauthorized: invalid user id"))
					return
				}
				auditor.Emit(ctx, audit.Event{
					Category: audit.CategorySecurity,
					Action:   audit.ActionLegacyHeaderAuth,
					ActorID:  claims.UserID.String(),
				})
				ctx = requestcontext.WithUserID(ctx, claims.UserID)
				ctx = requestcontext.WithRole(ctx, claims.Role)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose context role does not match.
// Anonymous requests get 401, wrong-role requests get 403.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := requestcontext.Role(r.Context())
			if got == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}
			if got != role {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "access denied: "+role+"s only"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects anonymous requests regardless of role.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.UserID(r.Context()).IsNil() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

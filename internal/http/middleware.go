package http

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/example/calendar-engine/internal/application"
)

// APIKeyAuthenticator resolves the verbatim Authorization header value to
// the principal it authenticates.
type APIKeyAuthenticator interface {
	AuthenticateAPIKey(ctx context.Context, key string) (application.Principal, error)
}

// APIKeyAuthenticatorFunc adapts a function to the APIKeyAuthenticator interface.
type APIKeyAuthenticatorFunc func(ctx context.Context, key string) (application.Principal, error)

// AuthenticateAPIKey implements APIKeyAuthenticator.
func (f APIKeyAuthenticatorFunc) AuthenticateAPIKey(ctx context.Context, key string) (application.Principal, error) {
	return f(ctx, key)
}

// RequireAPIKey guards a handler chain behind API key authentication.
// Requests carry the key verbatim in the Authorization header; the
// authenticated principal is attached to the request context for handlers.
func RequireAPIKey(authenticator APIKeyAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	base := defaultLogger(logger)
	responder := newResponder(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticator == nil {
				base.ErrorContext(r.Context(), "API key authenticator not configured", "middleware", "RequireAPIKey")
				responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: "認証処理中にエラーが発生しました。"})
				return
			}

			audit := LoggerFromContext(r.Context())
			if audit == nil {
				audit = base
			}
			audit = audit.With("middleware", "RequireAPIKey")

			key := strings.TrimSpace(r.Header.Get("Authorization"))
			if key == "" {
				audit.ErrorContext(r.Context(), "API key missing", "error_kind", "unauthorized")
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAPIKey)
				return
			}
			audit = audit.With("key_fingerprint", keyFingerprint(key))

			principal, err := authenticator.AuthenticateAPIKey(r.Context(), key)
			if err != nil {
				switch {
				case errors.Is(err, application.ErrUnauthorized), errors.Is(err, application.ErrNotFound):
					audit.ErrorContext(r.Context(), "API key rejected", "error", err, "error_kind", application.ErrorKind(err))
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "API キーが無効です。"})
				default:
					audit.ErrorContext(r.Context(), "API key validation failed", "error", err, "error_kind", application.ErrorKind(err))
					responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: "認証処理中にエラーが発生しました。"})
				}
				return
			}

			audit.With("principal_id", principal.UserID).InfoContext(r.Context(), "API key accepted")
			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// keyFingerprint returns a short stable digest of an API key so audit logs
// can correlate requests without ever recording the key itself.
func keyFingerprint(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

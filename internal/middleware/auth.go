package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/2beens/gymrpg/internal/auth"
	"github.com/2beens/gymrpg/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type revocationChecker interface {
	IsRevoked(ctx context.Context, claims *auth.Claims) (bool, error)
}

type AuthMiddlewareHandler struct {
	config       auth.Config
	revocations  revocationChecker
	allowedPaths map[string]bool
}

// NewAuthMiddlewareHandler creates the bearer token check. revocations may be nil,
// in which case logged out tokens stay valid until they expire.
func NewAuthMiddlewareHandler(
	config auth.Config,
	revocations revocationChecker,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		config:      config,
		revocations: revocations,
		allowedPaths: map[string]bool{
			"/":          true,
			"/version":   true,
			"/exercises": true,
		},
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", auth.ErrInvalidToken
	}
	return strings.TrimSpace(header[len("Bearer "):]), nil
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(r)
			if err != nil {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			claims, err := auth.ParseToken(token, h.config)
			if err != nil {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			if h.revocations != nil {
				revoked, err := h.revocations.IsRevoked(ctx, claims)
				if err != nil {
					log.Errorf("[failed revocation check] => %s: %s", r.URL.Path, err)
					http.Error(w, "no can do", http.StatusUnauthorized)
					span.SetStatus(codes.Error, "check-revoked-err")
					span.RecordError(err)
					return
				}
				if revoked {
					log.Tracef("[revoked token] [auth middleware] unauthorized => %s", r.URL.Path)
					http.Error(w, "no can do", http.StatusUnauthorized)
					span.SetStatus(codes.Error, "revoked-token")
					span.RecordError(auth.ErrRevokedToken)
					return
				}
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

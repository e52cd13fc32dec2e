package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TenantClaim is the token claim holding the tenant id.
const TenantClaim = "tenant_id"

type tenantKey struct{}

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
	errBadClaims    = errors.New("invalid token claims")
)

// Middleware resolves the tenant from an HMAC-signed bearer token. Requests without a
// valid token and tenant claim are rejected with 401.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := parseRequest(r, secret)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenantID)))
		})
	}
}

func parseRequest(r *http.Request, secret []byte) (uuid.UUID, error) {
	header := r.Header.Get("Authorization")

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return uuid.Nil, errMissingToken
	}

	claims := jwt.MapClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		return uuid.Nil, errInvalidToken
	}

	value, _ := claims[TenantClaim].(string)

	tenantID, err := uuid.Parse(value)
	if err != nil || tenantID == uuid.Nil {
		return uuid.Nil, errBadClaims
	}

	return tenantID, nil
}

func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantID returns the tenant stored by Middleware, or uuid.Nil.
func TenantID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(tenantKey{}).(uuid.UUID)
	return id
}

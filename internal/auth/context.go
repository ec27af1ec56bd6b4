package auth

import "context"

type contextKey string

const claimsKey contextKey = "gymrpg-auth-claims"

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// OwnerKey returns the owner the request was authenticated as, if any.
func OwnerKey(ctx context.Context) (string, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.OwnerKey == "" {
		return "", false
	}
	return claims.OwnerKey, true
}

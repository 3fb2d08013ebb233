package auth

import (
	"context"
	"slices"

	"soundshelf/internal/apperr"
	"soundshelf/internal/models"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = apperr.New(apperr.Unauthenticated, "missing bearer token")
	// ErrBanned rejects banned accounts on every authenticated route.
	ErrBanned = apperr.New(apperr.Forbidden, "account is banned")
	// ErrForbidden indicates the identity lacks the required role or ownership.
	ErrForbidden = apperr.New(apperr.Forbidden, "insufficient permissions")
)

// Identity is the verified caller of a request.
type Identity struct {
	UserID int64
	Role   models.Role
}

// TokenVerifier validates a raw token into an Identity.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Guard performs per-request authentication. It holds no per-request state.
type Guard struct {
	tokens TokenVerifier
}

// NewGuard builds a Guard around the given verifier.
func NewGuard(tokens TokenVerifier) *Guard {
	return &Guard{tokens: tokens}
}

// RequireAuthenticated verifies token and rejects banned identities.
func (g *Guard) RequireAuthenticated(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}
	identity, err := g.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	if identity.Role == models.RoleBanned {
		return Identity{}, ErrBanned
	}
	return identity, nil
}

// RequireRole allows identity only when its role is one of allowed.
func RequireRole(identity Identity, allowed ...models.Role) error {
	if identity.Role == models.RoleBanned {
		return ErrBanned
	}
	if slices.Contains(allowed, identity.Role) {
		return nil
	}
	return ErrForbidden
}

// RequireOwnerOrRole allows the resource owner or any of the allowed roles.
func RequireOwnerOrRole(identity Identity, ownerID int64, allowed ...models.Role) error {
	if identity.Role == models.RoleBanned {
		return ErrBanned
	}
	if identity.UserID == ownerID {
		return nil
	}
	return RequireRole(identity, allowed...)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom extracts the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

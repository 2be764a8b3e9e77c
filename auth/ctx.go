package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-chat/middleware/jwtware"
)

// DefaultContextKey is the fiber Locals key the guard stores identities under
const DefaultContextKey = "user"

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentity sets the Identity in the given context
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity in the standard context
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	return raw, ok && raw != nil
}

// GetIdentity returns the identity the guard attached to this request.
// It trusts the guard: tokens are not parsed again. The Locals key is
// checked first, then the request user context, which the guard fills
// whatever context key it was configured with.
func GetIdentity(c *fiber.Ctx, key ...string) (Identity, error) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}

	if identity, ok := c.Locals(k).(Identity); ok && identity != nil {
		return identity, nil
	}

	if identity, ok := IdentityFromContext(c.UserContext()); ok {
		return identity, nil
	}

	return nil, ErrMissingToken
}

// IdentityHandler is a handler that needs an authenticated identity
type IdentityHandler func(c *fiber.Ctx, identity Identity) error

// RequireIdentity fails fast with 401 when the guard did not attach an
// identity, otherwise it calls handler with it.
func RequireIdentity(handler IdentityHandler, key ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := GetIdentity(c, key...)
		if err != nil {
			return jwtware.DefaultErrorHandler(c, err)
		}
		return handler(c, identity)
	}
}

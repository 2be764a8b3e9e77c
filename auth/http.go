package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-chat/middleware/jwtware"
)

// RouteAuthenticator wires the guard, the issuer and the login flow into
// fiber handlers.
type RouteAuthenticator struct {
	auth         Authenticator
	issuer       *SessionIssuer
	tokens       TokenService
	cfg          Config
	Logger       Logger
	ErrorHandler fiber.ErrorHandler
}

func NewHTTPAuthenticator(auther Authenticator, tokens TokenService, issuer *SessionIssuer, cfg Config) *RouteAuthenticator {
	return &RouteAuthenticator{
		auth:         auther,
		issuer:       issuer,
		tokens:       tokens,
		cfg:          cfg,
		Logger:       defLogger{},
		ErrorHandler: jwtware.DefaultErrorHandler,
	}
}

// ProtectedRoute is the strict guard: requests without a valid token get 401
func (a *RouteAuthenticator) ProtectedRoute() fiber.Handler {
	return jwtware.New(a.guardConfig(nil))
}

// SessionRoute is the soft guard: visitors without a token are issued an
// anonymous session. Requests for which skip returns true bypass the guard.
func (a *RouteAuthenticator) SessionRoute(skip func(*fiber.Ctx) bool) fiber.Handler {
	cfg := a.guardConfig(a.issuer)
	cfg.Filter = skip
	return jwtware.New(cfg)
}

func (a *RouteAuthenticator) guardConfig(issuer jwtware.AnonymousIssuer) jwtware.Config {
	return jwtware.Config{
		ErrorHandler:    a.ErrorHandler,
		TokenValidator:  a.tokens,
		AnonymousIssuer: issuer,
		SessionCookie:   a.issuer.Cookie,
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextEnricher: WithIdentity,
		Logger:          a.Logger,
	}
}

// Login checks the credentials and sets the session cookie
func (a *RouteAuthenticator) Login(c *fiber.Ctx, payload LoginPayload) error {
	token, err := a.auth.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		a.Logger.Info("Login error", "error", err)
		return err
	}

	c.Cookie(a.issuer.Cookie(token))
	return nil
}

// Logout clears the session cookie
func (a *RouteAuthenticator) Logout(c *fiber.Ctx) {
	c.Cookie(a.issuer.ExpiredCookie())
}

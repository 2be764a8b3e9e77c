package jwtware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

const (
	// DefaultCookieName is the cookie carrying the session token
	DefaultCookieName = "token"
	defaultAuthScheme = "Bearer"
)

var defaultTokenLookup = "cookie:" + DefaultCookieName + ",header:" + fiber.HeaderAuthorization

// Identity is the verified subject attached to a request.
// This mirrors auth.Identity without an import cycle.
type Identity interface {
	Subject() string
	DisplayName() string
}

// TokenValidator interface for validating tokens without import cycles
// This mirrors the TokenService.Validate method from the auth package
type TokenValidator interface {
	Validate(tokenString string) (Identity, error)
}

// AnonymousIssuer mints a session for visitors without a token. The identity
// and the token are returned together so the guard never decodes its own token.
type AnonymousIssuer interface {
	IssueAnonymous() (Identity, string, error)
}

// Logger is the subset of auth.Logger the guard uses, args are key value
// pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	// Filter skips the guard when it returns true
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	// TokenValidator is required for token validation
	TokenValidator TokenValidator
	// AnonymousIssuer switches the guard to the soft policy. When nil,
	// requests without a token are rejected with ErrMissingToken.
	AnonymousIssuer AnonymousIssuer
	// SessionCookie builds the cookie written after an anonymous session
	// was issued.
	SessionCookie func(token string) *fiber.Cookie
	ContextKey    string
	// TokenLookup is a comma separated list of sources, first match wins:
	// cookie:token,header:Authorization
	TokenLookup string
	AuthScheme  string
	// ContextEnricher is an optional function to propagate the identity to
	// the standard Go context.
	ContextEnricher func(c context.Context, identity Identity) context.Context
	Logger          Logger
}

func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		d := cfg.evaluate(c, extractors)

		switch d.state {
		case Verified:
			cfg.attach(c, d.identity)
			return cfg.SuccessHandler(c)
		case AnonymousIssued:
			cfg.attach(c, d.identity)
			err := cfg.SuccessHandler(c)
			// a handler that set its own session cookie, e.g. login, wins
			cookie := cfg.SessionCookie(d.token)
			if len(c.Response().Header.PeekCookie(cookie.Name)) == 0 {
				c.Cookie(cookie)
			}
			return err
		default:
			cfg.Logger.Debug("guard rejected request",
				"path", c.Path(),
				"state", d.state.String(),
				"error", d.err,
			)
			return cfg.ErrorHandler(c, d.err)
		}
	}
}

// decision is the terminal outcome of evaluating one request
type decision struct {
	state    State
	identity Identity
	token    string
	err      error
}

func (cfg *Config) evaluate(c *fiber.Ctx, extractors []JWTExtractor) decision {
	raw := ExtractRawToken(c, extractors)

	state := NoCandidate
	if raw != "" {
		state = CandidatePresent
	}

	switch state {
	case CandidatePresent:
		identity, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return decision{state: Rejected, err: InvalidToken(err)}
		}
		return decision{state: Verified, identity: identity}
	default:
		if cfg.AnonymousIssuer == nil {
			return decision{state: Rejected, err: ErrMissingToken}
		}
		identity, token, err := cfg.AnonymousIssuer.IssueAnonymous()
		if err != nil {
			richErr := errors.Wrap(err, errors.CategoryInternal, "issue anonymous session").
				WithCode(errors.CodeInternal)
			return decision{state: Rejected, err: richErr}
		}
		return decision{state: AnonymousIssued, identity: identity, token: token}
	}
}

func (cfg *Config) attach(c *fiber.Ctx, identity Identity) {
	c.Locals(cfg.ContextKey, identity)

	if cfg.ContextEnricher != nil {
		c.SetUserContext(cfg.ContextEnricher(c.UserContext(), identity))
	}
}

// ExtractRawToken returns the value of the first extractor that finds a
// candidate. Later extractors are never consulted once one matched, even if
// the value turns out to be invalid.
func ExtractRawToken(c *fiber.Ctx, extractors []JWTExtractor) string {
	for _, extractor := range extractors {
		if raw := extractor(c); raw != "" {
			return raw
		}
	}
	return ""
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = defaultAuthScheme
	}

	if cfg.SessionCookie == nil {
		cfg.SessionCookie = DefaultSessionCookie
	}

	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	return cfg
}

// DefaultErrorHandler writes the JSON rejection body. Errors outside the
// auth category are treated as server faults.
func DefaultErrorHandler(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Category == errors.CategoryAuth {
		status := richErr.Code
		if status == 0 {
			status = errors.CodeUnauthorized
		}
		return c.Status(status).JSON(ErrorResponse{
			Status:  "fail",
			Message: richErr.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Status:  "error",
		Message: "Unable to create session",
	})
}

// DefaultSessionCookie is token=<token>; Path=/; SameSite=Lax; HttpOnly
func DefaultSessionCookie(token string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     DefaultCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := defaultAuthScheme
	if len(authSchemes) > 0 && authSchemes[0] != "" {
		authScheme = authSchemes[0]
	}

	// cookie:token,header:Authorization,query:auth_token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

// JWTExtractor returns a token candidate or an empty string
type JWTExtractor func(c *fiber.Ctx) string

// jwtFromHeader matches "<scheme> <token>". The scheme is case sensitive,
// any other shape yields no candidate.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	prefix := authScheme + " "
	return func(c *fiber.Ctx) string {
		a := c.Get(header)
		if len(a) > len(prefix) && strings.HasPrefix(a, prefix) {
			return a[len(prefix):]
		}
		return ""
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c *fiber.Ctx) string {
		return c.Query(param)
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c *fiber.Ctx) string {
		return c.Cookies(name)
	}
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

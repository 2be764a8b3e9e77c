package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goliatone/go-chat/middleware/jwtware"
)

// SessionIssuer turns a verified user, or a fresh anonymous visitor, into a
// signed token and the cookie carrying it. It keeps no state: the token is
// the session.
type SessionIssuer struct {
	tokens     TokenService
	cookieName string
	newSubject func() string
	logger     Logger
}

var _ jwtware.AnonymousIssuer = (*SessionIssuer)(nil)

// SessionIssuerOption configures a SessionIssuer
type SessionIssuerOption func(*SessionIssuer)

// WithCookieName overrides the default "token" cookie
func WithCookieName(name string) SessionIssuerOption {
	return func(s *SessionIssuer) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// WithSubjectGenerator overrides the anonymous subject generator
func WithSubjectGenerator(fn func() string) SessionIssuerOption {
	return func(s *SessionIssuer) {
		if fn != nil {
			s.newSubject = fn
		}
	}
}

// WithIssuerLogger sets the logger
func WithIssuerLogger(logger Logger) SessionIssuerOption {
	return func(s *SessionIssuer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSessionIssuer(tokens TokenService, opts ...SessionIssuerOption) *SessionIssuer {
	s := &SessionIssuer{
		tokens:     tokens,
		cookieName: jwtware.DefaultCookieName,
		newSubject: func() string { return uuid.NewString() },
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// IssueForUser mints a session for a user whose credentials were checked
func (s *SessionIssuer) IssueForUser(user *User) (string, error) {
	if user == nil {
		return "", ErrIdentityNotFound
	}

	claims := s.tokens.Mint(user.ID.String(), user.Username)
	return s.tokens.SignClaims(claims)
}

// IssueAnonymous mints a session for a new random subject. The identity is
// returned with the token so callers can use it without decoding.
func (s *SessionIssuer) IssueAnonymous() (Identity, string, error) {
	claims := s.tokens.Mint(s.newSubject(), "")

	token, err := s.tokens.SignClaims(claims)
	if err != nil {
		s.logger.Error("IssueAnonymous failed to sign claims", "error", err)
		return nil, "", err
	}

	s.logger.Debug("issued anonymous session", "subject", claims.Subject())

	return claims, token, nil
}

// CookieName is the name of the session cookie
func (s *SessionIssuer) CookieName() string {
	return s.cookieName
}

// Cookie is the directive token=<token>; Path=/; SameSite=Lax; HttpOnly
func (s *SessionIssuer) Cookie(token string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// ExpiredCookie clears the session cookie
func (s *SessionIssuer) ExpiredCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

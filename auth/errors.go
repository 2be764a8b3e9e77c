package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-chat/middleware/jwtware"
)

// TokenErrorKind classifies decode failures
type TokenErrorKind string

const (
	TokenMalformed    TokenErrorKind = "malformed"
	TokenBadSignature TokenErrorKind = "bad_signature"
	TokenExpired      TokenErrorKind = "expired"
)

var (
	// ErrTokenMalformed the token could not be parsed
	ErrTokenMalformed = &TokenError{Kind: TokenMalformed}
	// ErrTokenBadSignature the signature does not verify under the secret
	ErrTokenBadSignature = &TokenError{Kind: TokenBadSignature}
	// ErrTokenExpired the token is outside its validity window
	ErrTokenExpired = &TokenError{Kind: TokenExpired}
)

// TokenError is returned by TokenService.Decode
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return "token " + string(e.Kind) + ": " + e.Err.Error()
	}
	return "token " + string(e.Kind)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Is matches by kind, errors.Is(err, ErrTokenExpired)
func (e *TokenError) Is(target error) bool {
	t, ok := target.(*TokenError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ErrSigning is returned when a token can not be signed. An empty secret is
// reported by NewTokenService so it surfaces at startup.
var ErrSigning = errors.New("unable to sign token")

// ErrEmptySigningKey configuration error
var ErrEmptySigningKey = errors.New("signing key must not be empty")

// ErrInvalidTokenTTL configuration error
var ErrInvalidTokenTTL = errors.New("token ttl must be at least one second")

// Guard facing errors, a decode failure of any kind becomes ErrInvalidToken.
var (
	ErrMissingToken = jwtware.ErrMissingToken
	ErrInvalidToken = jwtware.ErrInvalidToken
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// TextCodeUsernameTaken registration conflict text code
const TextCodeUsernameTaken = "USERNAME_TAKEN"

// ErrInvalidCredentials is returned for unknown users, wrong passwords and
// store failures alike.
var ErrInvalidCredentials = goerrors.New("Invalid username or password", goerrors.CategoryAuth).
	WithTextCode(goerrors.TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrUsernameTaken registration conflict
var ErrUsernameTaken = goerrors.New("Username already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(goerrors.CodeConflict)

// ErrNoEmptyString empty password
var ErrNoEmptyString = errors.New("string must not be empty")

// ErrMismatchedHashAndPassword wrong password
var ErrMismatchedHashAndPassword = errors.New("password does not match")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

// IsMalformedError will check for malformed tokens
func IsMalformedError(err error) bool {
	return errors.Is(err, ErrTokenMalformed)
}

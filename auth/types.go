package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-chat/middleware/jwtware"
)

// Logger takes a message followed by key value pairs
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity is the verified subject of one request. It is never persisted
// and never shared between requests.
type Identity = jwtware.Identity

// IsAnonymous reports whether the identity belongs to an anonymous session
func IsAnonymous(identity Identity) bool {
	return identity == nil || identity.DisplayName() == ""
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// TokenService mints, signs and verifies session tokens
type TokenService interface {
	Mint(subject, displayName string) *Claims
	SignClaims(claims *Claims) (string, error)
	Decode(tokenString string) (*Claims, error)
	Validate(tokenString string) (Identity, error)
	TTL() time.Duration
}

// CredentialStore is the persistence collaborator used during login.
// It only looks records up, password comparison happens in the Authenticator.
type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username string) (*User, error)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTH " + formatLine(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] AUTH " + formatLine(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTH " + formatLine(msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTH " + formatLine(msg, args...))
}

// NewLogger returns the console logger used when none is configured
func NewLogger() Logger {
	return defLogger{}
}

// formatLine renders msg key=value ... with a trailing newline
func formatLine(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(msg, "\n"))
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fmt.Fprintf(&b, " %v", args[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	b.WriteByte('\n')
	return b.String()
}

package auth

import (
	"context"
	"sync"
)

var (
	timingHashOnce sync.Once
	timingHash     string
)

// timingPasswordHash is compared against when there is no stored hash so
// that unknown users cost the same bcrypt work as wrong passwords.
func timingPasswordHash() string {
	timingHashOnce.Do(func() {
		timingHash, _ = HashPassword("timing-equalizer-password")
	})
	return timingHash
}

// Auther checks credentials against a CredentialStore and issues sessions
type Auther struct {
	store   CredentialStore
	issuer  *SessionIssuer
	logger  Logger
	onLogin func(ctx context.Context, user *User)
	compare func(password, hash string) error
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store CredentialStore, issuer *SessionIssuer) *Auther {
	return &Auther{
		store:   store,
		issuer:  issuer,
		logger:  defLogger{},
		compare: ComparePasswordAndHash,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithLoginHook registers a best effort callback run after a successful
// credential check, e.g. to track the last login.
func (s *Auther) WithLoginHook(hook func(ctx context.Context, user *User)) *Auther {
	s.onLogin = hook
	return s
}

// Login looks the user up, compares the password and returns a signed token.
// Store failures, unknown users and wrong passwords all return
// ErrInvalidCredentials. If ctx is done once the lookup returns, the result
// is discarded and the context error returned.
func (s *Auther) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.FindUserByUsername(ctx, username)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	if err != nil {
		s.logger.Info("Login lookup failed", "username", username, "error", err)
		return "", s.reject(password)
	}

	if user == nil {
		s.logger.Info("Login identity is nil", "username", username)
		return "", s.reject(password)
	}

	if err := s.compare(password, user.PasswordHash); err != nil {
		s.logger.Info("Login password mismatch", "username", username)
		return "", ErrInvalidCredentials
	}

	token, err := s.issuer.IssueForUser(user)
	if err != nil {
		s.logger.Error("Login failed to issue session", "username", username, "error", err)
		return "", err
	}

	if s.onLogin != nil {
		s.onLogin(ctx, user)
	}

	return token, nil
}

// reject burns one bcrypt comparison before failing
func (s *Auther) reject(password string) error {
	_ = s.compare(password, timingPasswordHash())
	return ErrInvalidCredentials
}

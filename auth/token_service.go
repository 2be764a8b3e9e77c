package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiration is the session lifetime when none is configured
const DefaultTokenExpiration = 60 * time.Minute

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
	logger     Logger
}

var _ TokenService = (*TokenServiceImpl)(nil)

// TokenServiceOption configures a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithClock replaces time.Now for minting and verification
func WithClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// NewTokenService creates a new TokenService instance. An empty signing key
// or a ttl under one second is a configuration error.
func NewTokenService(signingKey []byte, ttl time.Duration, logger Logger, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	if len(signingKey) == 0 {
		return nil, ErrEmptySigningKey
	}

	if ttl < time.Second {
		return nil, ErrInvalidTokenTTL
	}

	if logger == nil {
		logger = defLogger{}
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	ts := &TokenServiceImpl{
		signingKey: key,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// TTL is the lifetime of minted tokens
func (ts *TokenServiceImpl) TTL() time.Duration {
	return ts.ttl
}

// Mint builds claims issued now and expiring after the configured ttl
func (ts *TokenServiceImpl) Mint(subject, displayName string) *Claims {
	return NewClaims(subject, displayName, ts.now(), ts.ttl)
}

// SignClaims encodes and signs claims with HS256
func (ts *TokenServiceImpl) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("%w: claims must not be nil", ErrSigning)
	}

	if len(ts.signingKey) == 0 {
		return "", fmt.Errorf("%w: %w", ErrSigning, ErrEmptySigningKey)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		ts.logger.Error("TokenService failed to sign claims", "error", err)
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}

	return signedString, nil
}

// Decode parses a token, verifies its signature and its time window and
// returns the claims. Errors are *TokenError.
func (ts *TokenServiceImpl) Decode(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)

	if err := checkSignatureSegment(parser, tokenString); err != nil {
		return nil, err
	}

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ts.signingKey, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Subject() == "" {
		return nil, &TokenError{Kind: TokenMalformed, Err: errors.New("missing subject")}
	}

	if _, err := uuid.Parse(claims.Subject()); err != nil {
		return nil, &TokenError{Kind: TokenMalformed, Err: fmt.Errorf("subject is not a uuid: %w", err)}
	}

	return claims, nil
}

// checkSignatureSegment reports a third segment that is not canonical
// base64url as a bad signature. Everything after the second dot is the
// signature, so a stray dot there is a signature defect too.
func checkSignatureSegment(parser *jwt.Parser, tokenString string) error {
	parts := strings.SplitN(tokenString, ".", 3)
	if len(parts) != 3 {
		return nil
	}

	if !strings.Contains(parts[2], ".") {
		if _, err := parser.DecodeSegment(parts[2]); err == nil {
			return nil
		}
	}

	if _, _, err := parser.ParseUnverified(parts[0]+"."+parts[1]+".", &Claims{}); err != nil {
		return classifyTokenError(err)
	}

	return &TokenError{Kind: TokenBadSignature, Err: errors.New("signature segment is not valid base64url")}
}

// Validate is Decode for the guard, which only needs the identity
func (ts *TokenServiceImpl) Validate(tokenString string) (Identity, error) {
	claims, err := ts.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func classifyTokenError(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &TokenError{Kind: TokenBadSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return &TokenError{Kind: TokenExpired, Err: err}
	default:
		return &TokenError{Kind: TokenMalformed, Err: err}
	}
}

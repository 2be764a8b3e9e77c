package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-chat/auth"
)

const (
	testSubject   = "5b0d9a0e-2f4c-4d1e-9a57-1c3e8f6b2d44"
	forgedSubject = "e3a1c2b4-7d6f-4a8e-b0c9-2f1d3e5a7b60"
)

func TestNewTokenService(t *testing.T) {
	t.Run("creates token service with logger", func(t *testing.T) {
		service, err := auth.NewTokenService(testSigningKey, time.Hour, newMockLogger())

		assert.NoError(t, err)
		assert.NotNil(t, service)
		assert.Equal(t, time.Hour, service.TTL())
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		service, err := auth.NewTokenService(testSigningKey, time.Hour, nil)

		assert.NoError(t, err)
		assert.NotNil(t, service)
	})

	t.Run("rejects empty signing key", func(t *testing.T) {
		service, err := auth.NewTokenService(nil, time.Hour, nil)

		assert.ErrorIs(t, err, auth.ErrEmptySigningKey)
		assert.Nil(t, service)
	})

	t.Run("rejects sub second ttl", func(t *testing.T) {
		_, err := auth.NewTokenService(testSigningKey, time.Millisecond, nil)

		assert.ErrorIs(t, err, auth.ErrInvalidTokenTTL)
	})
}

func TestTokenService_Mint(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 600, time.UTC)
	service := newTokenService(t, auth.WithClock(fixedClock(now)))

	claims := service.Mint(testSubject, "alice")

	assert.Equal(t, testSubject, claims.Subject())
	assert.Equal(t, "alice", claims.DisplayName())
	assert.True(t, claims.IssuedAt().Equal(now.Truncate(time.Second)))
	assert.True(t, claims.Expires().Equal(now.Truncate(time.Second).Add(time.Hour)))
	assert.True(t, claims.IsValid(claims.IssuedAt()))
	assert.False(t, claims.IsValid(claims.Expires()))
}

func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t)

	tests := []struct {
		name        string
		subject     string
		displayName string
	}{
		{name: "registered user", subject: "7d4f0d0e-56c2-4a4b-8a44-3f6f5a1f9b21", displayName: "alice"},
		{name: "anonymous", subject: "0b7e7e6c-5c1d-4a43-9f8e-3b1f5f2c7d10"},
		{name: "unicode name", subject: "9f2c4e6a-8b1d-4f3a-a5c7-e9d0b2f4a6c8", displayName: "zoë"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := service.Mint(tt.subject, tt.displayName)

			token, err := service.SignClaims(claims)
			require.NoError(t, err)
			assert.Len(t, strings.Split(token, "."), 3)

			decoded, err := service.Decode(token)
			require.NoError(t, err)
			assert.True(t, claims.Equal(decoded), "decoded claims differ: %+v != %+v", claims, decoded)
		})
	}
}

func TestTokenService_SignClaimsIsDeterministic(t *testing.T) {
	service := newTokenService(t)
	claims := service.Mint(testSubject, "alice")

	first, err := service.SignClaims(claims)
	require.NoError(t, err)
	second, err := service.SignClaims(claims)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTokenService_SignNilClaims(t *testing.T) {
	service := newTokenService(t)

	token, err := service.SignClaims(nil)

	assert.ErrorIs(t, err, auth.ErrSigning)
	assert.Empty(t, token)
}

func TestTokenService_TamperedSignature(t *testing.T) {
	service := newTokenService(t)
	token, err := service.SignClaims(service.Mint(testSubject, "alice"))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	signature := parts[2]

	for i := 0; i < len(signature); i++ {
		for bit := 0; bit < 8; bit++ {
			flipped := signature[i] ^ byte(1<<bit)
			tampered := parts[0] + "." + parts[1] + "." + signature[:i] + string([]byte{flipped}) + signature[i+1:]

			claims, err := service.Decode(tampered)
			assert.Nil(t, claims, "position %d bit %d", i, bit)
			assert.ErrorIs(t, err, auth.ErrTokenBadSignature, "position %d bit %d (%q)", i, bit, flipped)
		}
	}
}

func TestTokenService_SignatureSegmentShapes(t *testing.T) {
	service := newTokenService(t)
	token, err := service.SignClaims(service.Mint(testSubject, "alice"))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	prefix := parts[0] + "." + parts[1] + "."

	tests := []struct {
		name      string
		signature string
	}{
		{name: "empty", signature: ""},
		{name: "truncated", signature: parts[2][:len(parts[2])-1]},
		{name: "extended", signature: parts[2] + "A"},
		{name: "padded", signature: parts[2] + "="},
		{name: "extra segment", signature: parts[2] + ".x"},
		{name: "standard alphabet", signature: strings.NewReplacer("-", "+", "_", "/").Replace(parts[2]) + "+/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Decode(prefix + tt.signature)
			assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
		})
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	service := newTokenService(t)
	token, err := service.SignClaims(service.Mint(testSubject, "alice"))
	require.NoError(t, err)

	forged, err := service.SignClaims(service.Mint(forgedSubject, "mallory"))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")

	_, err = service.Decode(parts[0] + "." + forgedParts[1] + "." + parts[2])

	assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
}

func TestTokenService_WrongSecret(t *testing.T) {
	service := newTokenService(t)
	other, err := auth.NewTokenService([]byte("another-signing-key"), time.Hour, nil)
	require.NoError(t, err)

	token, err := other.SignClaims(other.Mint(testSubject, "alice"))
	require.NoError(t, err)

	claims, err := service.Decode(token)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
	assert.False(t, auth.IsTokenExpiredError(err))
	assert.False(t, auth.IsMalformedError(err))
}

func TestTokenService_Expired(t *testing.T) {
	now := time.Now()
	backdated := newTokenService(t, auth.WithClock(fixedClock(now.Add(-2*time.Hour))))
	service := newTokenService(t, auth.WithClock(fixedClock(now)))

	token, err := backdated.SignClaims(backdated.Mint(testSubject, "alice"))
	require.NoError(t, err)

	claims, err := service.Decode(token)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.True(t, auth.IsTokenExpiredError(err))
}

func TestTokenService_ValidityWindowIsHalfOpen(t *testing.T) {
	issuedAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	minter := newTokenService(t, auth.WithClock(fixedClock(issuedAt)))
	claims := minter.Mint(testSubject, "")
	token, err := minter.SignClaims(claims)
	require.NoError(t, err)

	atIssue := newTokenService(t, auth.WithClock(fixedClock(claims.IssuedAt())))
	_, err = atIssue.Decode(token)
	assert.NoError(t, err)

	lastSecond := newTokenService(t, auth.WithClock(fixedClock(claims.Expires().Add(-time.Second))))
	_, err = lastSecond.Decode(token)
	assert.NoError(t, err)

	atExpiry := newTokenService(t, auth.WithClock(fixedClock(claims.Expires())))
	_, err = atExpiry.Decode(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenService_IssuedInTheFuture(t *testing.T) {
	now := time.Now()
	future := newTokenService(t, auth.WithClock(fixedClock(now.Add(time.Hour))))
	service := newTokenService(t, auth.WithClock(fixedClock(now)))

	token, err := future.SignClaims(future.Mint(testSubject, ""))
	require.NoError(t, err)

	_, err = service.Decode(token)

	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenService_Malformed(t *testing.T) {
	service := newTokenService(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "two segments", token: "a.b"},
		{name: "bad base64", token: "###.###.###"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.Decode(tt.token)

			assert.Nil(t, claims)
			assert.ErrorIs(t, err, auth.ErrTokenMalformed)
			assert.True(t, auth.IsMalformedError(err))
		})
	}
}

func TestTokenService_MissingRequiredClaims(t *testing.T) {
	service := newTokenService(t)
	now := time.Now()

	t.Run("missing exp", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": testSubject,
			"iat": now.Unix(),
		})
		signed, err := token.SignedString(testSigningKey)
		require.NoError(t, err)

		_, err = service.Decode(signed)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("missing sub", func(t *testing.T) {
		signed, err := service.SignClaims(service.Mint("", ""))
		require.NoError(t, err)

		_, err = service.Decode(signed)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})
}

func TestTokenService_SubjectMustBeUUID(t *testing.T) {
	service := newTokenService(t)

	for _, subject := range []string{"user-123", "admin", "5b0d9a0e-2f4c-4d1e-9a57"} {
		t.Run(subject, func(t *testing.T) {
			signed, err := service.SignClaims(service.Mint(subject, "alice"))
			require.NoError(t, err)

			claims, err := service.Decode(signed)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, auth.ErrTokenMalformed)
		})
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	service := newTokenService(t)
	claims := service.Mint(testSubject, "alice")

	t.Run("none", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.Decode(signed)
		assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
	})

	t.Run("HS384 with the same key", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(testSigningKey)
		require.NoError(t, err)

		_, err = service.Decode(signed)
		assert.ErrorIs(t, err, auth.ErrTokenBadSignature)
	})
}

func TestTokenService_Validate(t *testing.T) {
	service := newTokenService(t)

	token, err := service.SignClaims(service.Mint(testSubject, "alice"))
	require.NoError(t, err)

	identity, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, testSubject, identity.Subject())
	assert.Equal(t, "alice", identity.DisplayName())

	identity, err = service.Validate("not-a-token")
	assert.Nil(t, identity)
	assert.Error(t, err)
}

func TestTokenError(t *testing.T) {
	cause := errors.New("boom")
	err := &auth.TokenError{Kind: auth.TokenExpired, Err: cause}

	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.NotErrorIs(t, err, auth.ErrTokenBadSignature)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "token expired: boom", err.Error())
	assert.Equal(t, "token malformed", auth.ErrTokenMalformed.Error())
}

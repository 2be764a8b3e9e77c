package jwtware

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingToken = "MISSING_TOKEN"
	TextCodeInvalidToken = "INVALID_TOKEN"
)

var (
	// ErrMissingToken is returned when the request carries no token candidate
	ErrMissingToken = errors.New("You are not logged in, please provide token", errors.CategoryAuth).
			WithTextCode(TextCodeMissingToken).
			WithCode(errors.CodeUnauthorized)
	// ErrInvalidToken is returned when the candidate token is malformed,
	// badly signed or expired.
	ErrInvalidToken = errors.New("Invalid token", errors.CategoryAuth).
			WithTextCode(TextCodeInvalidToken).
			WithCode(errors.CodeUnauthorized)
)

// ErrorResponse is the JSON body returned on rejection
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// InvalidToken wraps a decode failure. The cause is kept as Source for
// logging and never reaches the client.
func InvalidToken(cause error) *errors.Error {
	err := ErrInvalidToken.Clone()
	err.Source = cause
	return err
}

// IsMissingToken reports whether err is a missing token rejection
func IsMissingToken(err error) bool {
	return hasTextCode(err, TextCodeMissingToken)
}

// IsInvalidToken reports whether err is an invalid token rejection
func IsInvalidToken(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken)
}

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	return errors.As(err, &richErr) && richErr.TextCode == code
}

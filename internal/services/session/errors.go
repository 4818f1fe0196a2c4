package session

import "errors"

var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrSessionTerminated = errors.New("session terminated, log in again")
	ErrNoRefreshToken    = errors.New("no refresh token")
	ErrMalformedResponse = errors.New("malformed auth response")
)

// IsTransient reports whether err left the session untouched and the call
// may be retried later.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrSessionTerminated) &&
		!errors.Is(err, ErrNoRefreshToken) &&
		!errors.Is(err, ErrUnauthenticated)
}

package auth

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown email and for
	// a wrong password alike.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidSession is returned for unknown, expired or revoked tokens.
	ErrInvalidSession = errors.New("auth: invalid session")
	ErrEmptyPassword  = errors.New("auth: password is empty")
)

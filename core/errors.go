package core

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticatorUnavailable = errors.New("unable to detect authenticator")
	ErrNotInitialized           = errors.New("session is not initialized")
	ErrNoRPCEndpoint            = errors.New("chain has no rpc endpoint")
	ErrNoSignatureProvider      = errors.New("no supported signature provider")
	ErrAccountNotFound          = errors.New("account not found")
	ErrInvalidAsset             = errors.New("invalid asset")
	ErrInvalidEnvelope          = errors.New("invalid signature request envelope")
	ErrSessionNotFound          = errors.New("no session for chain")
)

// ErrorKind discriminates the failures an authenticator reports.
type ErrorKind string

const (
	KindInitialization ErrorKind = "Initialization"
	KindLogin          ErrorKind = "Login"
	KindLogout         ErrorKind = "Logout"
	KindSigning        ErrorKind = "Signing"
)

// AuthError is the single error type surfaced by authenticators and sessions.
type AuthError struct {
	Message string
	Kind    ErrorKind
	// Source is the error-type tag of the adapter that produced the error.
	Source string
	Cause  error
}

// NewAuthError creates a new AuthError. cause may be nil.
func NewAuthError(source, message string, kind ErrorKind, cause error) *AuthError {
	return &AuthError{
		Message: message,
		Kind:    kind,
		Source:  source,
		Cause:   cause,
	}
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// KindOf reports the kind of the outermost AuthError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		return "", false
	}
	return authErr.Kind, true
}

// CauseKind reports the kind of the AuthError wrapped by the outermost one,
// e.g. the Initialization cause of a Signing error.
func CauseKind(err error) (ErrorKind, bool) {
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Cause == nil {
		return "", false
	}
	return KindOf(authErr.Cause)
}

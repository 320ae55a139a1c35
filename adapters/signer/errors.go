package signer

import "errors"

var (
	// ErrSignerClosed is returned after CleanUp released the signer
	ErrSignerClosed = errors.New("signer has been cleaned up")

	// ErrKeyNotAvailable is returned when a required key is not held by the signer
	ErrKeyNotAvailable = errors.New("required key not available")

	// ErrRequestRejected is returned when the authenticator app declines a request
	ErrRequestRejected = errors.New("request rejected by authenticator")

	// ErrResponseMismatch is returned when a bridge response answers another request
	ErrResponseMismatch = errors.New("response does not match request")

	// ErrInvalidDigest is returned when a digest is not 32 bytes long
	ErrInvalidDigest = errors.New("digest must be 32 bytes")
)

package core

import "errors"

var (
	// ErrUnauthorized covers missing, malformed, and unknown tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound signals a referenced object is absent from storage.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals a malformed request body.
	ErrValidation = errors.New("validation failed")
	// ErrDecode signals a malformed Base64 token. It is never surfaced to a
	// caller; the gateway falls back to the raw token instead.
	ErrDecode = errors.New("token decode failed")
	// ErrHandshake signals a failed credentials exchange.
	ErrHandshake = errors.New("credentials handshake failed")
	// ErrEndpointNotFound signals a receiver advertises no endpoint for the
	// pushed module. Fails that receiver only, never the batch.
	ErrEndpointNotFound = errors.New("receiver endpoint not found")
)

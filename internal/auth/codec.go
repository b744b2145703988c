package auth

import (
	"encoding/base64"
	"fmt"

	"ocpinode/internal/core"
)

// EncodeToken Base64-encodes a raw token for the Authorization header.
// Required by OCPI 2.2 and later.
func EncodeToken(token string) string {
	return base64.StdEncoding.EncodeToString([]byte(token))
}

// DecodeToken reverses EncodeToken. Bad padding or characters yield
// core.ErrDecode so callers can fall back to the raw value.
func DecodeToken(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrDecode, err)
	}
	return string(b), nil
}

// HeaderValue renders the Authorization header for an outbound call,
// encoding the token when the version demands it.
func HeaderValue(token string, v core.VersionNumber) string {
	if v.RequiresBase64() {
		return "Token " + EncodeToken(token)
	}
	return "Token " + token
}

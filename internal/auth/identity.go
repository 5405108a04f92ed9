// ABOUTME: Display-only identity decoded from the bearer token payload
// ABOUTME: No signature verification; the server re-validates every request

package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Identity holds user attributes extracted from the token for UI display.
// The server remains the source of truth for authorization; nothing in the
// client gates behavior on these fields.
type Identity struct {
	ID          string `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsAdmin     bool   `json:"is_admin"`
	TOTPEnabled bool   `json:"totp_enabled"`
}

type identityClaims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsAdmin     bool   `json:"is_admin"`
	TOTPEnabled bool   `json:"totp_enabled"`
	jwt.RegisteredClaims
}

// DecodeIdentity parses the payload segment of a JWT without verifying its
// signature. Returns nil for anything that is not a three-segment token
// with a base64-decodable JSON payload.
func DecodeIdentity(token string) *Identity {
	parser := jwt.NewParser(jwt.WithPaddingAllowed())

	parsed, _, err := parser.ParseUnverified(token, &identityClaims{})
	if err != nil {
		return nil
	}
	claims, ok := parsed.Claims.(*identityClaims)
	if !ok {
		return nil
	}

	return &Identity{
		ID:          claims.UserID,
		Username:    claims.Username,
		Email:       claims.Email,
		IsAdmin:     claims.IsAdmin,
		TOTPEnabled: claims.TOTPEnabled,
	}
}

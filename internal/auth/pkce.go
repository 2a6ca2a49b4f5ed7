// Package auth implements the OAuth PKCE login flow and the on-disk
// credentials file used to authenticate API requests without an API key.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// PKCE holds one authorization-code-with-PKCE exchange's verifier,
// challenge, and CSRF state.
type PKCE struct {
	Verifier  string
	Challenge string
	State     string
}

// NewPKCE generates a fresh S256 PKCE pair and CSRF state token.
func NewPKCE() (*PKCE, error) {
	verifierBytes := make([]byte, 32)
	if _, err := rand.Read(verifierBytes); err != nil {
		return nil, err
	}
	verifier := base64.RawURLEncoding.EncodeToString(verifierBytes)

	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return nil, err
	}
	state := hex.EncodeToString(stateBytes)

	return &PKCE{Verifier: verifier, Challenge: challenge, State: state}, nil
}

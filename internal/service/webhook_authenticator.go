package service

import (
	"crypto/subtle"
	"errors"
)

// SharedSecretAuthenticator implements ports.WebhookAuthenticator by comparing
// the gateway's verif-hash header against the configured secret hash.
type SharedSecretAuthenticator struct {
	secret []byte
}

// NewSharedSecretAuthenticator fails when secret is empty, since an empty
// secret would accept any request without the header.
func NewSharedSecretAuthenticator(secret string) (*SharedSecretAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("webhook secret hash is not configured")
	}
	return &SharedSecretAuthenticator{secret: []byte(secret)}, nil
}

// Verify compares in constant time. An empty signature never matches.
func (a *SharedSecretAuthenticator) Verify(signature string) bool {
	if signature == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(signature), a.secret) == 1
}

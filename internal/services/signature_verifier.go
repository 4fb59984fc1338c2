package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureVerifier checks that an inbound event was signed by the gateway.
// The signature is the hex HMAC-SHA256 of the exact raw body bytes.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates a verifier for the shared webhook secret
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Sign returns the hex signature of rawBody
func (v *SignatureVerifier) Sign(rawBody []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify fails closed: a missing header is rejected the same as a wrong one
func (v *SignatureVerifier) Verify(rawBody []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrUnauthenticated
	}

	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return ErrUnauthenticated
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrUnauthenticated
	}

	return nil
}

package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret generates a cryptographically secure random secret
func GenerateSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Secrets is the set of shared secrets the server needs at boot
type Secrets struct {
	JWTSecret     string
	WebhookSecret string
	CronSecret    string
}

// GenerateSecrets generates fresh 256-bit secrets for every slot
func GenerateSecrets() (*Secrets, error) {
	jwtSecret, err := GenerateSecret(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
	}

	webhookSecret, err := GenerateSecret(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate webhook secret: %w", err)
	}

	cronSecret, err := GenerateSecret(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate cron secret: %w", err)
	}

	return &Secrets{
		JWTSecret:     jwtSecret,
		WebhookSecret: webhookSecret,
		CronSecret:    cronSecret,
	}, nil
}

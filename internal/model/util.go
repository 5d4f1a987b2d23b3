package model

import (
	"crypto/rand"
	"encoding/base64"
)

// generateSecureToken creates a secure random token string. Invite and
// password-reset links are only as safe as this entropy (32 bytes), since
// the token itself is the secret.
func generateSecureToken() string {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		// In a real application, we would handle this error better
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

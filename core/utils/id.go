package utils

import (
	"crypto/rand"
	"encoding/base64"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func GenerateID() string {
	id, err := gonanoid.Generate(alphanumeric, 7)
	if err != nil {
		return ""
	}
	return id
}

// GenerateMeetingPassword returns the random password assigned to public
// (non-registrant) meetings.
func GenerateMeetingPassword() string {
	pw, err := gonanoid.Generate(alphanumeric, 10)
	if err != nil {
		return GenerateRandomString(10)
	}
	return pw
}

// GenerateRandomString generates a cryptographically secure random string
func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to nanoid if crypto/rand fails
		id, _ := gonanoid.Generate(alphanumeric, length)
		return id
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length]
}

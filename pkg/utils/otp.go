package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const otpAlphabet = "0123456789"

// GenerateOTP returns a random numeric code of the given length.
func GenerateOTP(length int) (string, error) {
	return gonanoid.Generate(otpAlphabet, length)
}

package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateDigits returns a random numeric code of the given length, suitable
// for email verification codes and captcha challenges. Leading zeros are
// allowed, so a 6-digit code always has 10^6 possible values.
func GenerateDigits(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP produces a 6-digit numeric verification code
func GenerateOTP() (string, error) {
	// 100000..999999, never leading-zero ambiguous
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

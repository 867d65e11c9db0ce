package utils

import (
	"crypto/rand"
	"math/big"
)

// GenerateInvitationCode creates a random invitation code of the given length
func GenerateInvitationCode(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)

	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}

	return string(result)
}

package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const referenceChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReference creates a human-readable reference in the format "<prefix>-XXXXXX".
func GenerateReference(prefix string) (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate reference: %w", err)
		}
		result[i] = referenceChars[n.Int64()]
	}
	return prefix + "-" + string(result), nil
}

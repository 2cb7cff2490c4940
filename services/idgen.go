package services

import (
	"encoding/hex"

	"github.com/google/uuid"
)

const (
	DefaultShortIDLength = 6
	maxShortIDLength     = 32
)

// GenerateShortID returns the first length hex digits of a random uuid.
// Uniqueness is not guaranteed here; the store enforces it.
func GenerateShortID(length int) string {
	if length < 1 {
		length = DefaultShortIDLength
	}
	if length > maxShortIDLength {
		length = maxShortIDLength
	}
	id := uuid.New()
	return hex.EncodeToString(id[:])[:length]
}

package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a random identifier for history and message records
func GenerateID() string {
	return uuid.NewString()
}

package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.New().String()
}

// NewSessionID returns a short client session identifier of the form "user_<9 hex chars>".
func NewSessionID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "user_" + raw[:9]
}

package handlers

import (
	"strings"

	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func isValidShareType(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "public", "private":
		return true
	default:
		return false
	}
}

func isValidSharePermission(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "view", "download":
		return true
	default:
		return false
	}
}

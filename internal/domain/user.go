package domain

import (
	"strings"
	"time"
)

// MinFullNameTokens is the number of whitespace-separated parts a full name
// must carry: surname, given name and patronymic.
const MinFullNameTokens = 3

// UserProfile is a registered employee.
type UserProfile struct {
	UserID       int64
	FullName     string
	Department   string
	IsAdmin      bool
	RegisteredAt time.Time
}

// ValidFullName reports whether name has at least MinFullNameTokens parts.
func ValidFullName(name string) bool {
	return len(strings.Fields(name)) >= MinFullNameTokens
}

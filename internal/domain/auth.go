package domain

import "time"

// AccessToken describes an issued admin API token.
type AccessToken struct {
	Token     string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

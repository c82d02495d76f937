package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDepartureRecorded EventType = "departure_recorded"
	EventUserRegistered    EventType = "user_registered"
	EventUserReset         EventType = "user_reset"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// DepartureRecordedPayload carries what the supervisory channel is told.
type DepartureRecordedPayload struct {
	DepartureID int64     `json:"departure_id"`
	FullName    string    `json:"full_name"`
	Department  string    `json:"department"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	IsAdmin    bool   `json:"is_admin"`
}

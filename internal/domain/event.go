package domain

import "time"

// EventKind classifies inbound transport events.
type EventKind string

const (
	EventKindCommand        EventKind = "command"
	EventKindText           EventKind = "text"
	EventKindButtonCallback EventKind = "button_callback"
)

// Event is an inbound message from the chat transport. For commands Payload
// is the command name without the leading slash.
type Event struct {
	SenderID   int64
	ChatID     int64
	Kind       EventKind
	Payload    string
	ReceivedAt time.Time
}

package domain

import "time"

// SessionStep enumerates the dialog positions of a user.
type SessionStep string

const (
	StepIdle                    SessionStep = "idle"
	StepAwaitingFullName        SessionStep = "awaiting_full_name"
	StepAwaitingDepartment      SessionStep = "awaiting_department"
	StepAwaitingDepartureReason SessionStep = "awaiting_departure_reason"
)

// SessionState is the per-user dialog state. PendingFullName is only set
// between the name and department steps of registration.
type SessionState struct {
	Step            SessionStep `json:"step"`
	PendingFullName string      `json:"pending_full_name,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IdleSession returns the initial state every user starts in.
func IdleSession() SessionState {
	return SessionState{Step: StepIdle}
}

// IsIdle reports whether no dialog is in progress.
func (s SessionState) IsIdle() bool {
	return s.Step == "" || s.Step == StepIdle
}

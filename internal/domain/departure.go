package domain

import "time"

// DepartureRecord is one "stepped away from desk" entry. Records are
// append-only; the only removal path is a per-user reset.
type DepartureRecord struct {
	ID        int64
	UserID    int64
	Reason    string
	Timestamp time.Time
}

// DepartureReceipt is what the ledger hands back once a departure is committed.
type DepartureReceipt struct {
	Record     DepartureRecord
	FullName   string
	Department string
	IsAdmin    bool
}

package domain

import "time"

// ReportPeriod is the period bucket a report covers.
type ReportPeriod string

const (
	PeriodDay   ReportPeriod = "day"
	PeriodWeek  ReportPeriod = "week"
	PeriodMonth ReportPeriod = "month"
	PeriodYear  ReportPeriod = "year"
)

// ReportPeriods lists the recognized buckets in menu order.
var ReportPeriods = []ReportPeriod{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear}

// Known reports whether p is one of the recognized buckets.
func (p ReportPeriod) Known() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// ReportHeaders is the header row of every attendance report.
var ReportHeaders = []string{"№", "Full name", "Department", "Departure reason", "Date", "Time"}

// ReportRow is one departure line of a report. Number runs continuously
// across all users.
type ReportRow struct {
	Number     int
	FullName   string
	Department string
	Reason     string
	Date       string
	Time       string
}

// Values returns the row in header order.
func (r ReportRow) Values() []any {
	return []any{r.Number, r.FullName, r.Department, r.Reason, r.Date, r.Time}
}

// Report is a generated attendance document.
type Report struct {
	Period   ReportPeriod
	Since    time.Time
	Until    time.Time
	Rows     []ReportRow
	Filename string
	Data     []byte
}

package dto

import (
	"time"

	"github.com/officeflow/attendance-bot/internal/domain"
)

// ReportRow is one departure line of a JSON report.
type ReportRow struct {
	Number     int    `json:"number"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Reason     string `json:"reason"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// ReportResponse is the JSON rendition of a report.
type ReportResponse struct {
	Period string      `json:"period"`
	Since  time.Time   `json:"since"`
	Until  time.Time   `json:"until"`
	Rows   []ReportRow `json:"rows"`
}

// NewReportResponse converts a generated report.
func NewReportResponse(r *domain.Report) ReportResponse {
	rows := make([]ReportRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, ReportRow{
			Number:     row.Number,
			FullName:   row.FullName,
			Department: row.Department,
			Reason:     row.Reason,
			Date:       row.Date,
			Time:       row.Time,
		})
	}
	return ReportResponse{
		Period: string(r.Period),
		Since:  r.Since,
		Until:  r.Until,
		Rows:   rows,
	}
}

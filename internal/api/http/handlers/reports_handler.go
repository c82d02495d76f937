package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/officeflow/attendance-bot/internal/api/dto"
	"github.com/officeflow/attendance-bot/internal/auth"
	"github.com/officeflow/attendance-bot/internal/domain"
	"github.com/officeflow/attendance-bot/internal/service"
	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler serves departure reports to admins.
type ReportsHandler struct {
	reports *service.ReportService
	now     func() time.Time
}

// NewReportsHandler constructs handler. now supplies the report moment.
func NewReportsHandler(reports *service.ReportService, now func() time.Time) *ReportsHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportsHandler{reports: reports, now: now}
}

// GetReport GET /reports/:period. Returns the spreadsheet, or JSON rows
// with ?format=json.
func (h *ReportsHandler) GetReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	period := domain.ReportPeriod(c.Params("period"))
	if !period.Known() {
		return errorutil.NewValidationError("unknown report period", map[string]any{
			"period":  string(period),
			"allowed": domain.ReportPeriods,
		})
	}

	report, err := h.reports.Generate(c.UserContext(), principal.UserID, period, h.now())
	if err != nil {
		return err
	}

	if c.Query("format") == "json" {
		return c.JSON(fiber.Map{"data": dto.NewReportResponse(report)})
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.Filename))
	return c.Send(report.Data)
}

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/domain"
	"github.com/officeflow/attendance-bot/internal/export"
	"github.com/officeflow/attendance-bot/internal/observability"
	"github.com/officeflow/attendance-bot/internal/policy"
	"github.com/officeflow/attendance-bot/internal/repository"
	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

// ReportService builds attendance reports for administrators.
type ReportService struct {
	users      repository.UserRepository
	departures repository.DepartureRepository
	clock      *policy.Clock
	exporter   export.Exporter
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	Users      repository.UserRepository
	Departures repository.DepartureRepository
	Clock      *policy.Clock
	Exporter   export.Exporter
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{
		users:      deps.Users,
		departures: deps.Departures,
		clock:      deps.Clock,
		exporter:   deps.Exporter,
		metrics:    deps.Metrics,
		logger:     deps.Logger.Named("reports"),
	}
}

// Authorize returns PERMISSION_DENIED unless callerID is a registered admin.
func (s *ReportService) Authorize(ctx context.Context, callerID int64) error {
	profile, err := s.users.GetUser(ctx, callerID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	if err != nil || !profile.IsAdmin {
		s.metrics.Inc(observability.MetricPermissionDenied, "report")
		s.logger.Info("report access denied", zap.Int64("user_id", callerID))
		return errorutil.NewPermissionDenied("reports are available to administrators only")
	}
	return nil
}

// Generate authorizes callerID and produces the report document for period.
func (s *ReportService) Generate(ctx context.Context, callerID int64, period domain.ReportPeriod, now time.Time) (*domain.Report, error) {
	if err := s.Authorize(ctx, callerID); err != nil {
		return nil, err
	}

	since, until := s.clock.ReportWindow(period, now)
	rows, err := s.BuildRows(ctx, since, until)
	if err != nil {
		return nil, err
	}

	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.Values())
	}
	data, err := s.exporter.Export(domain.ReportHeaders, values)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	label := string(period)
	if !period.Known() {
		label = "custom"
	}
	s.metrics.Inc(observability.MetricReportsGenerated, label)
	s.logger.Info("report generated",
		zap.Int64("user_id", callerID),
		zap.String("period", string(period)),
		zap.Time("since", since),
		zap.Time("until", until),
		zap.Int("rows", len(rows)))

	return &domain.Report{
		Period:   period,
		Since:    since,
		Until:    until,
		Rows:     rows,
		Filename: "report." + s.exporter.Extension(),
		Data:     data,
	}, nil
}

// BuildRows walks users in registration order and emits one row per
// departure in [since, until]. Row numbers continue across users.
func (s *ReportService) BuildRows(ctx context.Context, since, until time.Time) ([]domain.ReportRow, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	loc := s.clock.Location()
	rows := make([]domain.ReportRow, 0)
	number := 1
	for _, user := range users {
		departures, err := s.departures.ListDepartures(ctx, user.UserID, since, until)
		if err != nil {
			return nil, err
		}
		for _, dep := range departures {
			at := dep.Timestamp.In(loc)
			rows = append(rows, domain.ReportRow{
				Number:     number,
				FullName:   user.FullName,
				Department: user.Department,
				Reason:     dep.Reason,
				Date:       at.Format("02.01.2006"),
				Time:       at.Format("15:04"),
			})
			number++
		}
	}
	return rows, nil
}

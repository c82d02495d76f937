package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/auditlog"
	"github.com/officeflow/attendance-bot/internal/domain"
	"github.com/officeflow/attendance-bot/internal/events"
	"github.com/officeflow/attendance-bot/internal/observability"
	"github.com/officeflow/attendance-bot/internal/policy"
	"github.com/officeflow/attendance-bot/internal/repository"
	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

// AuditSink receives the human-readable mirror of every committed departure.
type AuditSink interface {
	Append(entry auditlog.Entry) error
}

// LedgerService records departures.
type LedgerService struct {
	users      repository.UserRepository
	departures repository.DepartureRepository
	clock      *policy.Clock
	audit      AuditSink
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// LedgerDependencies bundles collaborators for the ledger service.
type LedgerDependencies struct {
	Users      repository.UserRepository
	Departures repository.DepartureRepository
	Clock      *policy.Clock
	Audit      AuditSink
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewLedgerService constructs the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	return &LedgerService{
		users:      deps.Users,
		departures: deps.Departures,
		clock:      deps.Clock,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger.Named("ledger"),
	}
}

// RecordDeparture commits a departure stamped with now.
//
// Errors: POLICY_VIOLATION outside business hours, VALIDATION_FAILED for an
// empty reason, NOT_FOUND for an unregistered user, STORE_UNAVAILABLE when the
// write did not happen. Audit log and notification failures are logged only;
// once the store accepted the record the call succeeds.
func (s *LedgerService) RecordDeparture(ctx context.Context, userID int64, reason string, now time.Time) (*domain.DepartureReceipt, error) {
	if !s.clock.IsBusinessMoment(now) {
		s.metrics.Inc(observability.MetricDeparturesRejected, errorutil.CodePolicyViolation)
		return nil, errorutil.NewPolicyViolation("departures are accepted on weekdays during business hours only")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		s.metrics.Inc(observability.MetricDeparturesRejected, errorutil.CodeValidation)
		return nil, errorutil.NewValidationError("departure reason is required", nil)
	}

	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errorutil.NewNotFound("user", map[string]any{"user_id": userID})
		}
		s.logger.Error("load profile failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	record := &domain.DepartureRecord{
		UserID:    userID,
		Reason:    reason,
		Timestamp: now.In(s.clock.Location()),
	}
	if _, err := s.departures.AppendDeparture(ctx, record); err != nil {
		s.metrics.Inc(observability.MetricDeparturesRejected, errorutil.CodeStoreUnavailable)
		s.logger.Error("departure not saved", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	s.metrics.Inc(observability.MetricDeparturesRecorded)
	s.logger.Info("departure recorded",
		zap.Int64("user_id", userID),
		zap.Int64("departure_id", record.ID),
		zap.Time("at", record.Timestamp))

	if s.audit != nil {
		entry := auditlog.Entry{
			At:         record.Timestamp,
			FullName:   profile.FullName,
			Department: profile.Department,
			Reason:     reason,
		}
		if err := s.audit.Append(entry); err != nil {
			s.logger.Error("audit log append failed", zap.Int64("departure_id", record.ID), zap.Error(err))
		}
	}

	if s.dispatcher != nil {
		err := s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventDepartureRecorded,
			UserID:    userID,
			Timestamp: record.Timestamp,
			Payload: events.DepartureRecordedPayload{
				DepartureID: record.ID,
				FullName:    profile.FullName,
				Department:  profile.Department,
				Reason:      reason,
				OccurredAt:  record.Timestamp,
			},
		})
		if err != nil {
			s.logger.Warn("departure notification not scheduled", zap.Int64("departure_id", record.ID), zap.Error(err))
		}
	}

	return &domain.DepartureReceipt{
		Record:     *record,
		FullName:   profile.FullName,
		Department: profile.Department,
		IsAdmin:    profile.IsAdmin,
	}, nil
}

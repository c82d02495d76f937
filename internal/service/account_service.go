package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/config"
	"github.com/officeflow/attendance-bot/internal/domain"
	"github.com/officeflow/attendance-bot/internal/events"
	"github.com/officeflow/attendance-bot/internal/policy"
	"github.com/officeflow/attendance-bot/internal/repository"
	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

// AccountService registers and resets employee profiles.
type AccountService struct {
	users      repository.UserRepository
	departures repository.DepartureRepository
	policy     config.PolicyConfig
	clock      *policy.Clock
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	Users      repository.UserRepository
	Departures repository.DepartureRepository
	Policy     config.PolicyConfig
	Clock      *policy.Clock
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAccountService constructs the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	return &AccountService{
		users:      deps.Users,
		departures: deps.Departures,
		policy:     deps.Policy,
		clock:      deps.Clock,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger.Named("accounts"),
	}
}

// Departments returns the choices offered during registration.
func (s *AccountService) Departments() domain.Departments {
	return s.policy.Departments
}

// Profile returns the stored profile, or repository.ErrUserNotFound.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	return s.users.GetUser(ctx, userID)
}

// IsRegistered reports whether userID completed registration.
func (s *AccountService) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	_, err := s.users.GetUser(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Register upserts the profile. The admin flag is taken from the allowlist
// now and never re-evaluated for this profile.
func (s *AccountService) Register(ctx context.Context, userID int64, fullName, department string) (*domain.UserProfile, error) {
	fullName = strings.Join(strings.Fields(fullName), " ")
	if !domain.ValidFullName(fullName) {
		return nil, errorutil.NewValidationError("full name must contain surname, given name and patronymic", map[string]any{
			"tokens": len(strings.Fields(fullName)),
		})
	}
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, errorutil.NewValidationError("department is required", nil)
	}

	profile := &domain.UserProfile{
		UserID:       userID,
		FullName:     fullName,
		Department:   department,
		IsAdmin:      s.policy.IsAdmin(userID),
		RegisteredAt: s.clock.Now(),
	}
	if err := s.users.UpsertUser(ctx, profile); err != nil {
		s.logger.Error("register user failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("user registered",
		zap.Int64("user_id", userID),
		zap.String("department", department),
		zap.Bool("is_admin", profile.IsAdmin))
	s.publishEvent(ctx, events.Event{
		Type:   events.EventUserRegistered,
		UserID: userID,
		Payload: events.UserRegisteredPayload{
			FullName:   profile.FullName,
			Department: profile.Department,
			IsAdmin:    profile.IsAdmin,
		},
	})
	return profile, nil
}

// Reset removes the profile and then every departure of userID. The two
// deletes are not atomic: if the second fails the departures stay behind
// without a profile, and the error is returned so the user can retry.
func (s *AccountService) Reset(ctx context.Context, userID int64) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		s.logger.Error("reset: delete user failed", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}
	if err := s.departures.DeleteDeparturesFor(ctx, userID); err != nil {
		s.logger.Error("reset: delete departures failed, departures orphaned",
			zap.Int64("user_id", userID), zap.Error(err))
		return err
	}
	s.logger.Info("user reset", zap.Int64("user_id", userID))
	s.publishEvent(ctx, events.Event{Type: events.EventUserReset, UserID: userID})
	return nil
}

func (s *AccountService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

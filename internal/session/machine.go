// Package session drives the per-user conversation: registration, departure
// reporting, reset and admin report requests.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/domain"
	"github.com/officeflow/attendance-bot/internal/observability"
	"github.com/officeflow/attendance-bot/internal/policy"
	"github.com/officeflow/attendance-bot/internal/repository"
	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

// Sender delivers replies back to the chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string, keyboard *domain.Keyboard) error
	SendDocument(ctx context.Context, chatID int64, data []byte, filename string) error
}

// Accounts manages registration profiles.
type Accounts interface {
	Departments() domain.Departments
	Profile(ctx context.Context, userID int64) (*domain.UserProfile, error)
	Register(ctx context.Context, userID int64, fullName, department string) (*domain.UserProfile, error)
	Reset(ctx context.Context, userID int64) error
}

// Ledger records departures.
type Ledger interface {
	RecordDeparture(ctx context.Context, userID int64, reason string, now time.Time) (*domain.DepartureReceipt, error)
}

// Reports authorizes and builds admin reports.
type Reports interface {
	Authorize(ctx context.Context, callerID int64) error
	Generate(ctx context.Context, callerID int64, period domain.ReportPeriod, now time.Time) (*domain.Report, error)
}

// Dependencies bundles collaborators for the machine.
type Dependencies struct {
	States   StateStore
	Accounts Accounts
	Ledger   Ledger
	Reports  Reports
	Sender   Sender
	Clock    *policy.Clock
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// Machine advances each user's dialog state by one event at a time.
type Machine struct {
	states   StateStore
	accounts Accounts
	ledger   Ledger
	reports  Reports
	sender   Sender
	clock    *policy.Clock
	metrics  *observability.Metrics
	logger   *zap.Logger
	locks    *KeyedMutex
}

// NewMachine constructs the state machine.
func NewMachine(deps Dependencies) *Machine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		states:   deps.States,
		accounts: deps.Accounts,
		ledger:   deps.Ledger,
		reports:  deps.Reports,
		sender:   deps.Sender,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		logger:   logger.Named("session"),
		locks:    NewKeyedMutex(),
	}
}

// reply is what a handler wants sent back.
type reply struct {
	text     string
	keyboard *domain.Keyboard
	document *domain.Report
}

type handlerFunc func(ctx context.Context, ev domain.Event, state domain.SessionState) (domain.SessionState, []reply)

// Handle processes ev for its sender. Events of one user are serialized;
// different users proceed concurrently. The returned error is a delivery
// failure; the state transition has already been stored.
func (m *Machine) Handle(ctx context.Context, ev domain.Event) error {
	m.metrics.RecordEvent(string(ev.Kind))

	unlock := m.locks.Lock(ev.SenderID)
	defer unlock()

	state, err := m.states.Load(ctx, ev.SenderID)
	if err != nil {
		m.logger.Warn("session state unavailable, starting idle", zap.Int64("user_id", ev.SenderID), zap.Error(err))
		state = domain.IdleSession()
	}

	handler := m.route(ev, state)
	next, replies := handler(ctx, ev, state)

	if err := m.persist(ctx, ev.SenderID, state, next); err != nil {
		m.logger.Error("session state not saved", zap.Int64("user_id", ev.SenderID), zap.Error(err))
	}

	return m.deliver(ctx, chatFor(ev), replies)
}

// State returns the stored dialog state of userID.
func (m *Machine) State(ctx context.Context, userID int64) (domain.SessionState, error) {
	return m.states.Load(ctx, userID)
}

func (m *Machine) route(ev domain.Event, state domain.SessionState) handlerFunc {
	switch ev.Kind {
	case domain.EventKindCommand:
		switch strings.ToLower(strings.TrimPrefix(ev.Payload, "/")) {
		case "start":
			return m.start
		case "reset":
			return m.reset
		case "report":
			return m.reportMenu
		}
	case domain.EventKindButtonCallback:
		return m.reportDownload
	case domain.EventKindText:
		text := strings.TrimSpace(ev.Payload)
		if text == "" {
			break
		}
		if text == DepartureButton {
			return m.beginDeparture
		}
		switch state.Step {
		case domain.StepAwaitingFullName:
			return m.acceptFullName
		case domain.StepAwaitingDepartment:
			return m.acceptDepartment
		case domain.StepAwaitingDepartureReason:
			return m.acceptReason
		}
		if text == ReportButton {
			return m.reportMenu
		}
	}
	return m.catchAll
}

func (m *Machine) start(ctx context.Context, ev domain.Event, state domain.SessionState) (domain.SessionState, []reply) {
	profile, err := m.accounts.Profile(ctx, ev.SenderID)
	switch {
	case err == nil:
		return domain.IdleSession(), []reply{{text: msgAlreadyRegistered, keyboard: MainMenu(profile.IsAdmin)}}
	case errors.Is(err, repository.ErrUserNotFound):
		return m.enter(domain.StepAwaitingFullName, ""), []reply{{text: msgAskFullName, keyboard: domain.RemoveKeyboard()}}
	default:
		m.logger.Error("profile lookup failed", zap.Int64("user_id", ev.SenderID), zap.Error(err))
		return state, []reply{{text: msgServiceUnavailable}}
	}
}

func (m *Machine) acceptFullName(_ context.Context, ev domain.Event, _ domain.SessionState) (domain.SessionState, []reply) {
	name := strings.Join(strings.Fields(ev.Payload), " ")
	if !domain.ValidFullName(name) {
		return m.enter(domain.StepAwaitingFullName, ""), []reply{{text: msgFullNameTooShort}}
	}
	return m.enter(domain.StepAwaitingDepartment, name), []reply{{
		text:     msgChooseDepartment,
		keyboard: DepartmentMenu(m.accounts.Departments()),
	}}
}

func (m *Machine) acceptDepartment(ctx context.Context, ev domain.Event, state domain.SessionState) (domain.SessionState, []reply) {
	department := strings.TrimSpace(ev.Payload)
	profile, err := m.accounts.Register(ctx, ev.SenderID, state.PendingFullName, department)
	switch {
	case err == nil:
		text := msgRegistered
		if profile.IsAdmin {
			text = msgRegisteredAdmin
		}
		return domain.IdleSession(), []reply{{text: text, keyboard: MainMenu(profile.IsAdmin)}}
	case errorutil.HasCode(err, errorutil.CodeValidation):
		// The stashed name is gone; start the name step over.
		return m.enter(domain.StepAwaitingFullName, ""), []reply{{text: msgAskFullName, keyboard: domain.RemoveKeyboard()}}
	default:
		m.logger.Error("registration not saved", zap.Int64("user_id", ev.SenderID), zap.Error(err))
		return state, []reply{{text: msgNotSaved}}
	}
}

func (m *Machine) beginDeparture(ctx context.Context, ev domain.Event, state domain.SessionState) (domain.SessionState, []reply) {
	_, err := m.accounts.Profile(ctx, ev.SenderID)
	switch {
	case err == nil:
		return m.enter(domain.StepAwaitingDepartureReason, ""), []reply{{text: msgAskReason}}
	case errors.Is(err, repository.ErrUserNotFound):
		return domain.IdleSession(), []reply{{text: msgNotRegistered}}
	default:
		m.logger.Error("profile lookup failed", zap.Int64("user_id", ev.SenderID), zap.Error(err))
		return state, []reply{{text: msgServiceUnavailable}}
	}
}

func (m *Machine) acceptReason(ctx context.Context, ev domain.Event, state domain.SessionState) (domain.SessionState, []reply) {
	now := m.clock.Now()
	if !m.clock.IsBusinessMoment(now) {
		return domain.IdleSession(), []reply{{text: msgOutsideHours, keyboard: domain.RemoveKeyboard()}}
	}

	receipt, err := m.ledger.RecordDeparture(ctx, ev.SenderID, ev.Payload, now)
	switch {
	case err == nil:
		return domain.IdleSession(), []reply{{text: msgDepartureSaved, keyboard: MainMenu(receipt.IsAdmin)}}
	case errorutil.HasCode(err, errorutil.CodePolicyViolation):
		return domain.IdleSession(), []reply{{text: msgOutsideHours, keyboard: domain.RemoveKeyboard()}}
	case errorutil.HasCode(err, errorutil.CodeValidation):
		return state, []reply{{text: msgReasonEmpty}}
	case errorutil.HasCode(err, errorutil.CodeNotFound):
		return domain.IdleSession(), []reply{{text: msgNotRegistered}}
	default:
		// Stay in the reason step so the user can resend.
		return state, []reply{{text: msgNotSaved}}
	}
}

func (m *Machine) reset(ctx context.Context, ev domain.Event, state domain.SessionState) (domain.SessionState, []reply) {
	if err := m.accounts.Reset(ctx, ev.SenderID); err != nil {
		m.logger.Error("reset incomplete", zap.Int64("user_id", ev.SenderID), zap.Error(err))
		return state, []reply{{text: msgNotSaved}}
	}
	return domain.IdleSession(), []reply{{text: msgResetDone, keyboard: domain.RemoveKeyboard()}}
}

func (m *Machine) reportMenu(ctx context.Context, ev domain.Event, state domain.SessionState) (domain.SessionState, []reply) {
	if err := m.reports.Authorize(ctx, ev.SenderID); err != nil {
		return state, []reply{m.reportFailure(ev, err)}
	}
	return state, []reply{{text: msgChoosePeriod, keyboard: PeriodMenu()}}
}

func (m *Machine) reportDownload(ctx context.Context, ev domain.Event, state domain.SessionState) (domain.SessionState, []reply) {
	period := domain.ReportPeriod(strings.TrimSpace(ev.Payload))
	report, err := m.reports.Generate(ctx, ev.SenderID, period, m.clock.Now())
	if err != nil {
		return state, []reply{m.reportFailure(ev, err)}
	}
	return state, []reply{{document: report}}
}

func (m *Machine) reportFailure(ev domain.Event, err error) reply {
	if errorutil.HasCode(err, errorutil.CodePermissionDenied) {
		return reply{text: msgPermissionDenied}
	}
	m.logger.Error("report failed", zap.Int64("user_id", ev.SenderID), zap.Error(err))
	return reply{text: msgReportUnavailable}
}

func (m *Machine) catchAll(_ context.Context, ev domain.Event, state domain.SessionState) (domain.SessionState, []reply) {
	m.logger.Debug("unrecognized input",
		zap.Int64("user_id", ev.SenderID),
		zap.String("kind", string(ev.Kind)),
		zap.String("step", string(state.Step)))
	return state, []reply{{text: msgUseButtons}}
}

func (m *Machine) enter(step domain.SessionStep, pendingName string) domain.SessionState {
	return domain.SessionState{Step: step, PendingFullName: pendingName, UpdatedAt: m.clock.Now()}
}

func (m *Machine) persist(ctx context.Context, userID int64, prev, next domain.SessionState) error {
	if next.IsIdle() {
		if prev.IsIdle() {
			return nil
		}
		return m.states.Clear(ctx, userID)
	}
	if next == prev {
		return nil
	}
	return m.states.Save(ctx, userID, next)
}

func (m *Machine) deliver(ctx context.Context, chatID int64, replies []reply) error {
	var errs []error
	for _, r := range replies {
		var err error
		if r.document != nil {
			err = m.sender.SendDocument(ctx, chatID, r.document.Data, r.document.Filename)
		} else {
			err = m.sender.SendText(ctx, chatID, r.text, r.keyboard)
		}
		if err != nil {
			m.logger.Warn("reply not delivered", zap.Int64("chat_id", chatID), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func chatFor(ev domain.Event) int64 {
	if ev.ChatID != 0 {
		return ev.ChatID
	}
	return ev.SenderID
}

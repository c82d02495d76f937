package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/auditlog"
	"github.com/officeflow/attendance-bot/internal/config"
	"github.com/officeflow/attendance-bot/internal/domain"
	"github.com/officeflow/attendance-bot/internal/events"
	"github.com/officeflow/attendance-bot/internal/export"
	"github.com/officeflow/attendance-bot/internal/observability"
	"github.com/officeflow/attendance-bot/internal/policy"
	"github.com/officeflow/attendance-bot/internal/repository"
)

// businessMoment is a Wednesday morning.
var businessMoment = time.Date(2026, time.October, 14, 10, 15, 0, 0, time.UTC)

type recordingNotifier struct {
	mu       sync.Mutex
	err      error
	channels []int64
	texts    []string
}

func (r *recordingNotifier) Notify(_ context.Context, channelID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.channels = append(r.channels, channelID)
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingNotifier) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

type fixture struct {
	store      repository.Store
	clock      *policy.Clock
	dispatcher *events.AsyncDispatcher
	notifier   *recordingNotifier
	metrics    *observability.Metrics
	auditPath  string
	accounts   *AccountService
	ledger     *LedgerService
	reports    *ReportService
}

func newFixture(t *testing.T, admins ...int64) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := repository.Open(context.Background(), config.StoreConfig{
		Driver:         "sqlite",
		DSN:            filepath.Join(dir, "bot.db"),
		TimeoutSeconds: 5,
		RunMigrations:  true,
	}, time.UTC, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return newFixtureWithStore(t, store, dir, admins...)
}

func newFixtureWithStore(t *testing.T, store repository.Store, dir string, admins ...int64) *fixture {
	t.Helper()
	logger := zap.NewNop()
	clock := policy.NewClock(time.UTC, policy.WithNow(func() time.Time { return businessMoment }))
	adminIDs := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		adminIDs[id] = struct{}{}
	}
	pc := config.PolicyConfig{AdminIDs: adminIDs, Departments: domain.DefaultDepartments}

	auditPath := filepath.Join(dir, "departures_log.txt")
	audit, err := auditlog.NewWriter(auditPath)
	if err != nil {
		t.Fatalf("audit writer: %v", err)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewAsyncDispatcher(logger, time.Second)
	notifier := &recordingNotifier{}
	NewNotificationService(dispatcher, notifier, -100500, metrics, logger).RegisterHandlers()

	f := &fixture{
		store:      store,
		clock:      clock,
		dispatcher: dispatcher,
		notifier:   notifier,
		metrics:    metrics,
		auditPath:  auditPath,
	}
	f.accounts = NewAccountService(AccountDependencies{
		Users: store, Departures: store, Policy: pc, Clock: clock, Dispatcher: dispatcher, Logger: logger,
	})
	f.ledger = NewLedgerService(LedgerDependencies{
		Users: store, Departures: store, Clock: clock, Audit: audit, Dispatcher: dispatcher, Metrics: metrics, Logger: logger,
	})
	f.reports = NewReportService(ReportDependencies{
		Users: store, Departures: store, Clock: clock, Exporter: export.NewXLSXExporter("Report"), Metrics: metrics, Logger: logger,
	})
	return f
}

func (f *fixture) register(t *testing.T, userID int64, name string) *domain.UserProfile {
	t.Helper()
	profile, err := f.accounts.Register(context.Background(), userID, name, "Central Districts Office")
	if err != nil {
		t.Fatalf("register %d: %v", userID, err)
	}
	return profile
}

// faultyStore fails selected operations.
type faultyStore struct {
	repository.Store
	appendErr         error
	deleteDeparturesE error
}

func (s *faultyStore) AppendDeparture(ctx context.Context, record *domain.DepartureRecord) (int64, error) {
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	return s.Store.AppendDeparture(ctx, record)
}

func (s *faultyStore) DeleteDeparturesFor(ctx context.Context, userID int64) error {
	if s.deleteDeparturesE != nil {
		return s.deleteDeparturesE
	}
	return s.Store.DeleteDeparturesFor(ctx, userID)
}

var errDiskFull = errors.New("disk full")

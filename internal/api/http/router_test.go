package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/api/http/handlers"
	"github.com/officeflow/attendance-bot/internal/auth"
	"github.com/officeflow/attendance-bot/internal/config"
	"github.com/officeflow/attendance-bot/internal/export"
	"github.com/officeflow/attendance-bot/internal/observability"
	"github.com/officeflow/attendance-bot/internal/policy"
	"github.com/officeflow/attendance-bot/internal/repository"
	"github.com/officeflow/attendance-bot/internal/service"
)

const (
	testAdminID int64 = 900
	testUserID  int64 = 1
	testAPIKey        = "let-me-in"
)

type apiFixture struct {
	app     *fiber.App
	authSvc *service.AuthService
	metrics *observability.Metrics
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zap.NewNop()
	ctx := context.Background()
	store, err := repository.Open(ctx, config.StoreConfig{
		Driver:         "sqlite",
		DSN:            filepath.Join(t.TempDir(), "bot.db"),
		TimeoutSeconds: 5,
		RunMigrations:  true,
	}, time.UTC, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	now := time.Date(2026, time.October, 14, 10, 15, 0, 0, time.UTC)
	clock := policy.NewClock(time.UTC, policy.WithNow(func() time.Time { return now }))
	accounts := service.NewAccountService(service.AccountDependencies{
		Users: store, Departures: store, Clock: clock, Logger: logger,
		Policy: config.PolicyConfig{AdminIDs: map[int64]struct{}{testAdminID: {}}},
	})
	for id, name := range map[int64]string{testAdminID: "Admin Adminov Adminovich", testUserID: "Ivanov Sergey Petrovich"} {
		if _, err := accounts.Register(ctx, id, name, "Coordination Office"); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	ledger := service.NewLedgerService(service.LedgerDependencies{Users: store, Departures: store, Clock: clock, Logger: logger})
	if _, err := ledger.RecordDeparture(ctx, testUserID, "registry office", now); err != nil {
		t.Fatalf("record: %v", err)
	}

	hash, err := auth.HashAPIKey(testAPIKey, 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	authSvc := service.NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5, AdminAPIKeyHash: hash},
		service.AuthDependencies{Users: store, Logger: logger})
	reports := service.NewReportService(service.ReportDependencies{
		Users: store, Departures: store, Clock: clock, Exporter: export.NewXLSXExporter("Report"), Logger: logger,
	})
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("attendance-bot", "test", map[string]handlers.Pinger{"store": store}),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authSvc),
		Reports:        handlers.NewReportsHandler(reports, clock.Now),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), store),
	})
	return &apiFixture{app: app, authSvc: authSvc, metrics: metrics}
}

func (f *apiFixture) do(t *testing.T, req *nethttp.Request) (*nethttp.Response, []byte) {
	t.Helper()
	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return payload.Error.Code
}

func (f *apiFixture) token(t *testing.T, userID int64) string {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"user_id": userID, "api_key": testAPIKey})
	req := httptest.NewRequest(nethttp.MethodPost, "/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, raw := f.do(t, req)
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("token status %d: %s", resp.StatusCode, raw)
	}
	var payload struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return payload.Data.Token
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/live", nil))
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("live status %d", resp.StatusCode)
	}
	resp, body := f.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/ready", nil))
	if resp.StatusCode != nethttp.StatusOK || !bytes.Contains(body, []byte(`"store":"ok"`)) {
		t.Fatalf("ready status %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get(observability.RequestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}
}

func TestAdminDownloadsReport(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t, testAdminID)

	req := httptest.NewRequest(nethttp.MethodGet, "/reports/day", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, body := f.do(t, req)
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("report status %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("Content-Type") != xlsxContentTypeForTest {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("Content-Disposition") != `attachment; filename="report.xlsx"` {
		t.Fatalf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}
	if len(body) == 0 {
		t.Fatalf("empty report body")
	}

	req = httptest.NewRequest(nethttp.MethodGet, "/reports/day?format=json", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, body = f.do(t, req)
	var payload struct {
		Data struct {
			Rows []struct {
				Number int    `json:"number"`
				Reason string `json:"reason"`
			} `json:"rows"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode json report: %v", err)
	}
	if len(payload.Data.Rows) != 1 || payload.Data.Rows[0].Reason != "registry office" || payload.Data.Rows[0].Number != 1 {
		t.Fatalf("unexpected rows: %s", body)
	}
}

func TestReportRouteRejections(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.do(t, httptest.NewRequest(nethttp.MethodGet, "/reports/day", nil))
	if resp.StatusCode != nethttp.StatusUnauthorized || errorCode(t, body) != "UNAUTHORIZED" {
		t.Fatalf("missing token: %d %s", resp.StatusCode, body)
	}

	userToken, _, _, err := f.authSvc.TokenManager().GenerateToken(testUserID)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	req := httptest.NewRequest(nethttp.MethodGet, "/reports/day", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, body = f.do(t, req)
	if resp.StatusCode != nethttp.StatusForbidden || errorCode(t, body) != "PERMISSION_DENIED" {
		t.Fatalf("non-admin: %d %s", resp.StatusCode, body)
	}

	req = httptest.NewRequest(nethttp.MethodGet, "/reports/decade", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, testAdminID))
	resp, body = f.do(t, req)
	if resp.StatusCode != nethttp.StatusBadRequest || errorCode(t, body) != "VALIDATION_FAILED" {
		t.Fatalf("unknown period: %d %s", resp.StatusCode, body)
	}

	resp, body = f.do(t, httptest.NewRequest(nethttp.MethodGet, "/nowhere", nil))
	if resp.StatusCode != nethttp.StatusNotFound || errorCode(t, body) != "NOT_FOUND" {
		t.Fatalf("unknown route: %d %s", resp.StatusCode, body)
	}
}

func TestUnknownPathsShareErrorCounter(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, httptest.NewRequest(nethttp.MethodGet, "/junk-0", nil))
	baseline := len(f.metrics.Keys())

	for i := 1; i < 200; i++ {
		f.do(t, httptest.NewRequest(nethttp.MethodGet, fmt.Sprintf("/junk-%d", i), nil))
	}
	keys := f.metrics.Keys()
	if len(keys) != baseline {
		t.Fatalf("counter set grew with distinct paths: %d -> %d", baseline, len(keys))
	}
	for _, key := range keys {
		if strings.Contains(key, "/junk-") {
			t.Fatalf("raw request path leaked into counter key %q", key)
		}
	}
}

func TestTokenRequiresAdmin(t *testing.T) {
	f := newAPIFixture(t)
	body, _ := json.Marshal(map[string]any{"user_id": testUserID, "api_key": testAPIKey})
	req := httptest.NewRequest(nethttp.MethodPost, "/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, raw := f.do(t, req)
	if resp.StatusCode != nethttp.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.StatusCode, raw)
	}

	req = httptest.NewRequest(nethttp.MethodPost, "/auth/token", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, raw = f.do(t, req)
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, raw)
	}
}

const xlsxContentTypeForTest = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

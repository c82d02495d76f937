package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/auth"
	"github.com/officeflow/attendance-bot/internal/config"
	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

func TestIssueToken(t *testing.T) {
	f := newFixture(t, 100)
	f.register(t, 100, "Admin Adminov Adminovich")
	f.register(t, 1, "Ivanov Sergey Petrovich")

	hash, err := auth.HashAPIKey("key", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc := NewAuthService(config.AuthConfig{JWTSecret: "s", AccessTokenTTLMinutes: 10, AdminAPIKeyHash: hash},
		AuthDependencies{Users: f.store, Logger: zap.NewNop()})
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, 100, "key")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.TokenManager().ParseToken(token.Token)
	if err != nil || claims.UserID != 100 {
		t.Fatalf("token does not parse back: %+v %v", claims, err)
	}

	cases := []struct {
		name   string
		userID int64
		key    string
		code   string
	}{
		{"wrong key", 100, "nope", errorutil.CodeUnauthorized},
		{"unknown user", 404, "key", errorutil.CodeUnauthorized},
		{"non-admin", 1, "key", errorutil.CodePermissionDenied},
	}
	for _, tc := range cases {
		if _, err := svc.IssueToken(ctx, tc.userID, tc.key); !errorutil.HasCode(err, tc.code) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
	}

	disabled := NewAuthService(config.AuthConfig{JWTSecret: "s"}, AuthDependencies{Users: f.store, Logger: zap.NewNop()})
	if _, err := disabled.IssueToken(ctx, 100, ""); !errorutil.HasCode(err, errorutil.CodeUnauthorized) {
		t.Fatalf("expected unauthorized without a configured key, got %v", err)
	}
}

package persistence

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSplitStatementsDropsComments(t *testing.T) {
	stmts := splitStatements("-- header\nCREATE TABLE a (x INT);\n\n-- note\nCREATE INDEX i ON a (x);\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %#v", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") {
		t.Fatalf("unexpected first statement %q", stmts[0])
	}
}

func TestLoadMigrationsForBothDialects(t *testing.T) {
	for _, dialect := range []string{DialectPostgres, DialectSQLite} {
		migrations, err := loadMigrations(dialect)
		if err != nil {
			t.Fatalf("%s: %v", dialect, err)
		}
		if len(migrations) == 0 || len(migrations[0].statements) < 4 {
			t.Fatalf("%s: unexpected migrations %#v", dialect, migrations)
		}
	}
}

func TestSQLiteFilePath(t *testing.T) {
	cases := map[string]struct {
		path string
		ok   bool
	}{
		":memory:":                   {"", false},
		"file::memory:?cache=shared": {"", false},
		"data/bot.db":                {"data/bot.db", true},
		"file:data/bot.db?mode=rwc":  {"data/bot.db", true},
	}
	for dsn, want := range cases {
		got, ok := sqliteFilePath(dsn)
		if got != want.path || ok != want.ok {
			t.Fatalf("sqliteFilePath(%q) = %q,%v want %q,%v", dsn, got, ok, want.path, want.ok)
		}
	}
}

func TestOpenGormSQLiteAndMigrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "bot.db")
	db, err := OpenGorm("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	ctx := context.Background()
	if err := MigrateGorm(ctx, db, DialectSQLite, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Migrations are idempotent.
	if err := MigrateGorm(ctx, db, DialectSQLite, zap.NewNop()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM departures").Scan(&count).Error; err != nil {
		t.Fatalf("query departures: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d", count)
	}
}

func TestOpenGormRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenGorm("oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
	if _, err := OpenGorm("postgres", ""); err == nil {
		t.Fatalf("expected error for missing postgres dsn")
	}
}

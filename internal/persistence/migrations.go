package persistence

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations
var migrationsFS embed.FS

// Dialects with a migrations directory.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type migration struct {
	name       string
	statements []string
}

// RunMigrations executes the postgres migrations over a pgx pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}
	return apply(DialectPostgres, logger, func(stmt string) error {
		_, err := pool.Exec(ctx, stmt)
		return err
	})
}

// MigrateGorm executes the migrations for dialect through gorm.
func MigrateGorm(ctx context.Context, db *gorm.DB, dialect string, logger *zap.Logger) error {
	if db == nil {
		return fmt.Errorf("gorm handle is nil")
	}
	return apply(dialect, logger, func(stmt string) error {
		return db.WithContext(ctx).Exec(stmt).Error
	})
}

func apply(dialect string, logger *zap.Logger, exec func(string) error) error {
	migrations, err := loadMigrations(dialect)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		logger.Info("applying migration", zap.String("dialect", dialect), zap.String("file", m.name))
		for _, stmt := range m.statements {
			if err := exec(stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
	}

	logger.Info("migrations applied", zap.String("dialect", dialect), zap.Int("count", len(migrations)))
	return nil
}

func loadMigrations(dialect string) ([]migration, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations for %s: %w", dialect, err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)

	out := make([]migration, 0, len(filenames))
	for _, name := range filenames {
		content, err := fs.ReadFile(migrationsFS, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{name: name, statements: splitStatements(string(content))})
	}
	return out, nil
}

func splitStatements(content string) []string {
	var out []string
	for _, raw := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				lines = append(lines, line)
			}
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Package pgtest opens a migrated postgres database for repository tests.
// Tests are skipped unless AVITOLIKE_TEST_DSN is set, for example
//
//	AVITOLIKE_TEST_DSN="host=localhost user=postgres password=postgres dbname=avitolike_test sslmode=disable"
package pgtest

import (
	"context"
	"os"
	"testing"

	"github.com/IMRiesen/avitolike/internal/bootstrap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const EnvDSN = "AVITOLIKE_TEST_DSN"

// lockKey serializes test packages sharing the database.
const lockKey = 7316420

// Open migrates the schema, seeds roles and empties every data table. It
// holds an advisory lock until the test ends. The database must be
// dedicated to tests.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvDSN)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("pool: %v", err)
	}

	ctx := context.Background()
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		t.Fatalf("lock conn: %v", err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockKey); err != nil {
		t.Fatalf("advisory lock: %v", err)
	}

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	truncate(t, db)

	t.Cleanup(func() {
		truncate(t, db)
		_, _ = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", lockKey)
		_ = conn.Close()
		_ = sqlDB.Close()
	})
	return db
}

func truncate(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`TRUNCATE TABLE view_history, notifications, reviews, favorites, ad_images, ads,
		categories, user_settings, user_roles, users CASCADE`).Error
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

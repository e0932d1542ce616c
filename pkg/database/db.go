package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db      *gorm.DB
	connErr error
	once    sync.Once
)

// Options describes a postgres connection.
type Options struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Debug    bool
}

func (o Options) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		o.Host, o.User, o.Password, o.Name, o.Port, o.SSLMode,
	)
}

// Connect opens the shared connection pool once per process.
func Connect(opts Options) (*gorm.DB, error) {
	once.Do(func() {
		level := logger.Warn
		if opts.Debug {
			level = logger.Info
		}

		conn, err := gorm.Open(postgres.Open(opts.DSN()), &gorm.Config{
			TranslateError: true,
			Logger: logger.New(logrus.StandardLogger(), logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			}),
		})
		if err != nil {
			connErr = fmt.Errorf("failed to connect database: %w", err)
			return
		}

		sqlDB, err := conn.DB()
		if err != nil {
			connErr = fmt.Errorf("failed to get sql handle: %w", err)
			return
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

		db = conn
	})

	return db, connErr
}

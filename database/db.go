package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"minibackends/models"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const uniqueViolationCode = "23505"

// RetryDelay is the pause between connection attempts.
var RetryDelay = 3 * time.Second

// Dialector picks the gorm driver from the DATABASE_URL scheme.
func Dialector(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return nil, errors.New("empty sqlite path")
		}
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		return sqlite.Open(withForeignKeys(path)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseURL)
	}
}

// Connect opens the store, retrying up to retries times.
func Connect(databaseURL string, retries int, log *slog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(databaseURL)
	if err != nil {
		return nil, err
	}
	if retries < 1 {
		retries = 1
	}

	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(log),
	}

	var db *gorm.DB
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(dialector, cfg)
		if err == nil {
			break
		}
		log.Warn("failed to connect to database", "attempt", i+1, "max_attempts", retries, "error", err)
		if i < retries-1 {
			time.Sleep(RetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", retries, err)
	}

	log.Info("connected to database", "dialect", db.Dialector.Name())
	return db, nil
}

// MigrateShortURL creates the short link and access log tables.
func MigrateShortURL(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ShortLink{}, &models.AccessEvent{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// MigrateTodo creates the to-do item and notification tables.
func MigrateTodo(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.TodoItem{}, &models.ItemNotification{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUniqueViolation reports whether err is a unique constraint failure on
// any supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// gormLogger routes gorm output through slog and keeps quiet about missing
// rows and unique violations, which callers treat as control flow.
type gormLogger struct {
	logger.Interface
}

func NewGormLogger(log *slog.Logger) logger.Interface {
	return gormLogger{
		Interface: logger.New(slog.NewLogLogger(log.Handler(), slog.LevelWarn), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

func (l gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return gormLogger{Interface: l.Interface.LogMode(level)}
}

func (l gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if IsUniqueViolation(err) {
		err = nil
	}
	l.Interface.Trace(ctx, begin, fc, err)
}

func ensureDir(path string) error {
	if isMemory(path) {
		return nil
	}
	dir := filepath.Dir(strings.TrimPrefix(strings.SplitN(path, "?", 2)[0], "file:"))
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func isMemory(path string) bool {
	return strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}

func withForeignKeys(path string) string {
	if strings.Contains(path, "foreign_keys") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&_pragma=foreign_keys(1)"
	}
	return path + "?_pragma=foreign_keys(1)"
}

package services

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"minibackends/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	url := fmt.Sprintf("sqlite://file:services_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Connect(url, 1, testLogger())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.MigrateShortURL(db))
	require.NoError(t, database.MigrateTodo(db))
	return db
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"minibackends/database"
	"minibackends/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	url := fmt.Sprintf("sqlite://file:handlers_%d?mode=memory&cache=shared", dbSeq.Add(1))
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

type linkFixture struct {
	db     *gorm.DB
	links  *services.LinkService
	stats  *services.StatsService
	router *gin.Engine
}

func setupLinkRouter(t *testing.T, baseURL string) *linkFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	logger := testLogger()
	links := services.NewLinkService(db, logger, services.DefaultShortIDLength, services.DefaultMaxAttempts)
	stats := services.NewStatsService(db, logger, 100)

	go stats.Run(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		stats.Stop(ctx)
	})

	router, err := NewShortURLRouter(NewLinkHandler(db, logger, links, stats, baseURL), []string{"*"})
	require.NoError(t, err)

	return &linkFixture{db: db, links: links, stats: stats, router: router}
}

func setupTodoRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	logger := testLogger()
	router, err := NewTodoRouter(NewTodoHandler(db, logger, services.NewTodoService(db, logger)), nil)
	require.NoError(t, err)
	return router, db
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}

	req, _ := http.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

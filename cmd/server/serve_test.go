package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bal-board/internal/config"
	"bal-board/internal/handler"
	"bal-board/internal/service"
	"bal-board/internal/store"
	"bal-board/internal/week"
)

func newTestMux(t *testing.T) (http.Handler, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))

	now := func() time.Time { return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) }
	board, err := service.NewBoard(st, week.NewManager(st, week.WithClock(now)), service.WithClock(now))
	require.NoError(t, err)
	require.NoError(t, board.Load(context.Background()))

	return newMux(handler.NewBoardHandler(board), st), st
}

func TestHealthAndReady(t *testing.T) {
	mux, st := newTestMux(t)

	for _, path := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "ok", rec.Body.String())
	}

	require.NoError(t, st.Close(context.Background()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMuxServesBoardRoutes(t *testing.T) {
	mux, st := newTestMux(t)
	t.Cleanup(func() { st.Close(context.Background()) }) //nolint:errcheck

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weeks", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"selected":"current"`)
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "board.db")}}
	t.Cleanup(func() { cfg = nil })

	st, err := openStore(context.Background())
	require.NoError(t, err)
	defer closeStore(st)

	staff, err := st.ListStaff(context.Background())
	require.NoError(t, err)
	assert.Empty(t, staff)
}

package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epilog-dev/epilog/internal/config"
	"github.com/epilog-dev/epilog/internal/diagnose"
	"github.com/epilog-dev/epilog/internal/oracle"
	"github.com/epilog-dev/epilog/internal/patch"
	"github.com/epilog-dev/epilog/internal/policy"
	"github.com/epilog-dev/epilog/internal/service"
	"github.com/epilog-dev/epilog/internal/store"
)

// newTestHandler wires a handler over an in-memory store with the mock
// oracle. The project root points at a fresh temp dir.
func newTestHandler(t *testing.T) (*Handler, *store.SQLiteStore) {
	return newTestHandlerAt(t, t.TempDir())
}

// newTestHandlerAt is newTestHandler with an explicit project root.
func newTestHandlerAt(t *testing.T, projectRoot string) (*Handler, *store.SQLiteStore) {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		ProjectPath: projectRoot,
		WindowSize:  diagnose.DefaultWindowSize,
	}
	engine := diagnose.NewEngine(st, oracle.NewMockProvider(), cfg.ProjectPath, cfg.WindowSize)

	pol, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	svc := service.New(st, engine, patch.NewApplier(), pol, cfg)
	return NewHandler(svc), st
}

func TestHealth(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Health(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, "healthy", resp["status"])
}

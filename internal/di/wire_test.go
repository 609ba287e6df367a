package di

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/crapto/internal/config"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	t.Setenv("CRAPTO_DATA_DIR", t.TempDir())
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestWire_JSONRegistry(t *testing.T) {
	cfg := loadConfig(t, nil)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.RegistryDB)
	assert.NotNil(t, container.RegistryStore)
	assert.NotNil(t, container.ImageStore)
	assert.Len(t, container.State.Catalog.List(), 3)
	assert.ElementsMatch(t,
		[]string{"sweep_notifications", "check_registry_database", "report_market_status"},
		container.Scheduler.Jobs(),
	)

	// no sqlite database to check
	assert.NoError(t, jobs.CheckRegistryDatabase.Run())
	assert.NoError(t, jobs.ReportMarketStatus.Run())
	assert.NoError(t, jobs.SweepNotifications.Run())
}

func TestWire_SQLiteRegistry(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"REGISTRY_BACKEND": config.RegistryBackendSQLite})

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	require.NotNil(t, container.RegistryDB)
	assert.Equal(t, filepath.Join(cfg.DataDir, "registry.db"), container.RegistryDB.Path())
	assert.NoError(t, jobs.CheckRegistryDatabase.Run())
	assert.NoError(t, container.Scheduler.RunNow(jobs.CheckRegistryDatabase.Name()))
}

func TestInitializeStores_ClosesRegistryWhenImagesFail(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	cfg := loadConfig(t, map[string]string{
		"REGISTRY_BACKEND": config.RegistryBackendSQLite,
		"UPLOADS_DIR":      filepath.Join(blocker, "uploads"),
	})

	container := &Container{}
	err := InitializeStores(context.Background(), container, cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, container.RegistryDB)
	assert.Nil(t, container.RegistryStore)

	_, _, err = Wire(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire_BadSeedFile(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"SEED_FILE": "/does/not/exist.yaml"})

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestStateConfigFrom(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"STARTING_BALANCE": "10", "CHANGE_STEP": "1.5"})

	stateCfg, err := StateConfigFrom(cfg.Market)
	require.NoError(t, err)
	assert.Equal(t, "10", stateCfg.StartingBalance.String())
	assert.Equal(t, "1.5", stateCfg.Catalog.ChangeStep.String())
	assert.Len(t, stateCfg.Seed, 3)
}

func TestNewServer_RoutesWired(t *testing.T) {
	cfg := loadConfig(t, nil)

	container, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	srv := NewServer(container, cfg, zerolog.Nop())

	paths := []string{
		"/health",
		"/api/session",
		"/api/tokens",
		"/api/trades",
		"/api/portfolio",
		"/api/create-token",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		})
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notifications/active", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNewServer_UploadedHTMLIsNotServedInline(t *testing.T) {
	cfg := loadConfig(t, nil)

	container, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	srv := NewServer(container, cfg, zerolog.Nop())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "PoopCoin"))
	require.NoError(t, mw.WriteField("ticker", "POOP"))
	part, err := mw.CreateFormFile("image", "evil.html")
	require.NoError(t, err)
	_, err = part.Write([]byte("<html><script>alert(document.cookie)</script></html>"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/create-token", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/create-token", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var records []struct {
		ImageURL string `json:"imageUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.NotContains(t, records[0].ImageURL, ".html")

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, records[0].ImageURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "attachment", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

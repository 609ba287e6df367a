package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/aristath/crapto/internal/config"
	"github.com/aristath/crapto/internal/events"
	"github.com/aristath/crapto/internal/services"
)

type stubMarket struct{}

func (stubMarket) MarketStatus() services.MarketStatus {
	return services.MarketStatus{Tokens: 3, Balance: decimal.NewFromInt(5)}
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.Log = zerolog.Nop()
	cfg.Version = "test"
	cfg.DevMode = true
	s := New(cfg)
	s.systemHandlers.systemStats = func() (float64, float64) { return 12.5, 40 }
	return s
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestWriteTimeoutCoversSettlement(t *testing.T) {
	assert.Less(t, config.MaxSettlementDelay, WriteTimeout)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{})

	w := serve(s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestSystemStatus(t *testing.T) {
	s := newTestServer(t, Config{Market: stubMarket{}})

	w := serve(s, http.MethodGet, "/api/system/status")
	require.Equal(t, http.StatusOK, w.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "test", status.Version)
	assert.Equal(t, 12.5, status.CPUPercent)
	assert.Equal(t, 40.0, status.MemoryPercent)
	assert.NotEmpty(t, status.GoVersion)
	require.NotNil(t, status.Market)
	assert.Equal(t, 3, status.Market.Tokens)
	assert.True(t, status.Market.Balance.Equal(decimal.NewFromInt(5)))
}

func TestSystemStatus_WithoutMarket(t *testing.T) {
	s := newTestServer(t, Config{})

	w := serve(s, http.MethodGet, "/api/system/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"market"`)
}

func TestModuleRoutesMountedUnderAPI(t *testing.T) {
	s := newTestServer(t, Config{Handlers: []RouteRegistrar{pingHandler{}}})

	w := serve(s, http.MethodGet, "/api/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/ping").Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Config{})

	req := httptest.NewRequest(http.MethodOptions, "/api/system/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadsServed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.png"), []byte("png-bytes"), 0644))

	s := newTestServer(t, Config{UploadsDir: dir})

	w := serve(s, http.MethodGet, "/uploads/abc.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())

	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/uploads/missing.png").Code)
}

func TestUploadsServed_NonImagesAreDownloads(t *testing.T) {
	dir := t.TempDir()
	page := []byte("<html><script>alert(1)</script></html>")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0b7e"), page, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), page, 0644))

	s := newTestServer(t, Config{UploadsDir: dir})

	for _, path := range []string{"/uploads/0b7e", "/uploads/page.html"} {
		w := serve(s, http.MethodGet, path)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"), path)
		assert.Equal(t, "attachment", w.Header().Get("Content-Disposition"), path)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), path)
	}
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) streamMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg streamMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestEventsStream(t *testing.T) {
	bus := events.NewBus()
	s := newTestServer(t, Config{Bus: bus})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events/ws?types=TOKEN_LAUNCHED"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	assert.Equal(t, "connected", readMessage(t, ctx, conn).Type)

	// filtered out
	bus.Emit(events.PriceUpdated, "catalog", map[string]interface{}{"ticker": "OPOOP"})
	bus.Emit(events.TokenLaunched, "catalog", map[string]interface{}{"ticker": "POOP"})

	msg := readMessage(t, ctx, conn)
	assert.Equal(t, string(events.TokenLaunched), msg.Type)
	assert.Equal(t, "catalog", msg.Module)
	assert.Equal(t, "POOP", msg.Data["ticker"])
}

func TestEventsStream_UnsubscribesOnClose(t *testing.T) {
	bus := events.NewBus()
	s := newTestServer(t, Config{Bus: bus})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events/ws", nil)
	require.NoError(t, err)
	readMessage(t, ctx, conn)
	assert.Equal(t, 1, bus.SubscriberCount())

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	assert.Eventually(t, func() bool {
		return bus.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventsStream_UnknownType(t *testing.T) {
	s := newTestServer(t, Config{Bus: events.NewBus()})

	w := serve(s, http.MethodGet, "/api/events/ws?types=TOKEN_LAUNCHED,NOPE")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "NOPE")
}

func TestParseTypes(t *testing.T) {
	types, err := parseTypes("")
	require.NoError(t, err)
	assert.Nil(t, types)

	types, err = parseTypes("token_launched, TRADE_SETTLED")
	require.NoError(t, err)
	assert.Equal(t, []events.EventType{events.TokenLaunched, events.TradeSettled}, types)
}

package testing

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/services"
)

// NewTestSession builds a seeded session on the real clock. Trades settle after delay.
func NewTestSession(t *testing.T, delay time.Duration) *services.SessionService {
	t.Helper()

	cfg, err := services.DefaultStateConfig()
	if err != nil {
		t.Fatalf("Failed to load default state config: %v", err)
	}
	cfg.SettlementDelay = delay

	state, err := services.NewAppState(cfg, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create app state: %v", err)
	}
	return services.NewSessionService(state, zerolog.Nop())
}

// NewAPIRouter mounts the given routes under /api
func NewAPIRouter(register func(r chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", register)
	return r
}

// Do serves one request against h. A non-nil body is sent as JSON.
func Do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// DecodeJSON decodes a recorded response body into T
func DecodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	"github.com/tinytelemetry/odometer/internal/clock"
	"github.com/tinytelemetry/odometer/internal/display"
	"github.com/tinytelemetry/odometer/internal/metrics"
	"github.com/tinytelemetry/odometer/internal/odometer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, cfg Config) (*Server, http.Handler) {
	t.Helper()
	set, err := display.New(display.Config{
		Base:     map[string]any{"active": false},
		Displays: []display.Spec{{Name: "main", Options: map[string]any{"startValue": 7}}},
		Clock:    clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("display.New: %v", err)
	}
	t.Cleanup(set.StopAll)

	srv := NewServer(cfg, set)
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("unmarshal %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, out
}

func TestHealthEndpoint(t *testing.T) {
	_, h := newTestServer(t, Config{})

	w, body := do(t, h, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
	if body["displays"] != float64(1) {
		t.Errorf("displays = %v, want 1", body["displays"])
	}
}

func TestHealthEndpoint_WrongMethod(t *testing.T) {
	_, h := newTestServer(t, Config{})

	w, body := do(t, h, http.MethodPost, "/api/health", "")
	if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
		t.Errorf("health POST status = %d, want 405 or 404", w.Code)
	}
	if body != nil {
		t.Errorf("plain-text error body decoded as JSON: %v", body)
	}
}

func TestListAndSnapshot(t *testing.T) {
	_, h := newTestServer(t, Config{})

	w, body := do(t, h, http.MethodGet, "/api/displays", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if names, _ := body["displays"].([]interface{}); len(names) != 1 || names[0] != "main" {
		t.Errorf("displays = %v, want [main]", body["displays"])
	}

	w, body = do(t, h, http.MethodGet, "/api/displays/main", "")
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d", w.Code)
	}
	if body["value"] != float64(7) || body["name"] != "main" {
		t.Errorf("snapshot = %v", body)
	}

	w, _ = do(t, h, http.MethodGet, "/api/displays/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing display status = %d, want 404", w.Code)
	}
}

func TestInvokeEndpoint(t *testing.T) {
	_, h := newTestServer(t, Config{})

	w, body := do(t, h, http.MethodPost, "/api/displays/main/increment", `{"value":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("increment status = %d: %v", w.Code, body)
	}
	if body["value"] != float64(10) {
		t.Errorf("value = %v, want 10", body["value"])
	}

	w, body = do(t, h, http.MethodPost, "/api/displays/main/reset", "")
	if w.Code != http.StatusOK || body["value"] != float64(7) {
		t.Errorf("reset = %d %v, want 200 7", w.Code, body)
	}

	w, _ = do(t, h, http.MethodPost, "/api/displays/main/explode", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unsupported method status = %d, want 404", w.Code)
	}

	w, _ = do(t, h, http.MethodPost, "/api/displays/main/set", `{"value":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}
}

func TestOptionEndpoints(t *testing.T) {
	_, h := newTestServer(t, Config{})

	w, body := do(t, h, http.MethodGet, "/api/displays/main/options/digits", "")
	if w.Code != http.StatusOK || body["value"] != float64(6) {
		t.Fatalf("get digits = %d %v", w.Code, body)
	}

	w, body = do(t, h, http.MethodPut, "/api/displays/main/options/digits", `{"value":4}`)
	if w.Code != http.StatusOK || body["value"] != float64(4) {
		t.Fatalf("put digits = %d %v", w.Code, body)
	}

	w, _ = do(t, h, http.MethodPut, "/api/displays/main/options/digits", `{"value":0}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid value status = %d, want 400", w.Code)
	}

	w, _ = do(t, h, http.MethodPut, "/api/displays/main/options/digits", `{"value":6.5}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("fractional digits status = %d, want 400", w.Code)
	}
	w, body = do(t, h, http.MethodGet, "/api/displays/main/options/digits", "")
	if body["value"] != float64(4) {
		t.Errorf("digits after rejected write = %v, want 4", body["value"])
	}

	w, _ = do(t, h, http.MethodGet, "/api/displays/main/options/colour", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown option status = %d, want 404", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	_, h := newTestServer(t, Config{RateLimit: 0.001, RateBurst: 2})

	for i := 0; i < 2; i++ {
		if w, _ := do(t, h, http.MethodPost, "/api/displays/main/get", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
	w, _ := do(t, h, http.MethodPost, "/api/displays/main/get", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}

	if w, _ := do(t, h, http.MethodGet, "/api/displays/main", ""); w.Code != http.StatusOK {
		t.Errorf("reads are not limited, got %d", w.Code)
	}
}

func TestRateLimiter_EvictsIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Unix(0, 0)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(visitorTTL + time.Second)
	rl.allow("b")

	if _, ok := rl.visitors["a"]; ok {
		t.Error("idle visitor was not evicted")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.Observer("main").ObserveTick(1)
	_, h := newTestServer(t, Config{Metrics: m.Handler()})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "odometer_ticks_total") {
		t.Errorf("metrics = %d %s", w.Code, w.Body.String())
	}
}

func TestStream(t *testing.T) {
	_, h := newTestServer(t, Config{StreamInterval: 10 * time.Millisecond})
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/displays/main/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for i := 0; i < 2; i++ {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var snap odometer.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if snap.Name != "main" || snap.Value != 7 {
			t.Errorf("snapshot = %+v", snap)
		}
	}
}

func TestStream_UnknownDisplay(t *testing.T) {
	_, h := newTestServer(t, Config{})

	w, body := do(t, h, http.MethodGet, "/api/displays/missing/stream", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if body["error"] == nil {
		t.Errorf("expected JSON error body, got %q", w.Body.String())
	}
}

func TestStream_FollowsValueChanges(t *testing.T) {
	srv, h := newTestServer(t, Config{StreamInterval: 5 * time.Millisecond})
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/displays/main/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if _, err := srv.displays.Invoke("main", "set", 42); err != nil {
		t.Fatalf("set: %v", err)
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var snap odometer.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if snap.Value == 42 {
			return
		}
	}
}

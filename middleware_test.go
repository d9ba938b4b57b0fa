package logify

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(t *testing.T, cfg *Config, clock Clock, sink Sink) *gin.Engine {
	t.Helper()
	l, err := New(cfg, WithClock(clock), WithSinks(sink))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	r := gin.New()
	r.Use(gin.RecoveryWithWriter(io.Discard))
	r.Use(l.Middleware())
	return r
}

func TestMiddlewareSkipsConfiguredPaths(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	r := newTestEngine(t, quietConfig(), clock, sink)
	for _, p := range []string{"/health", "/metrics", "/healthz", "/health/live"} {
		r.GET(p, func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	}

	for _, p := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK || w.Body.String() != "OK" {
			t.Errorf("GET %s = %d %q", p, w.Code, w.Body.String())
		}
	}
	if n := len(sink.Entries()); n != 0 {
		t.Fatalf("skipped paths produced %d entries", n)
	}
	if n := clock.Reads(); n != 0 {
		t.Fatalf("skipped paths read the clock %d times", n)
	}

	// matching is exact, not by prefix
	for _, p := range []string{"/healthz", "/health/live"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	if n := len(sink.Entries()); n != 2 {
		t.Fatalf("got %d entries for non-skipped paths, want 2", n)
	}
}

func TestMiddlewareRecordsRequest(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	r := newTestEngine(t, quietConfig(), clock, sink)
	r.POST("/items", func(c *gin.Context) {
		clock.Advance(250 * time.Millisecond)
		c.Header("X-Test", "kept")
		c.String(http.StatusCreated, "created")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/items", nil))

	if w.Code != http.StatusCreated || w.Body.String() != "created" || w.Header().Get("X-Test") != "kept" {
		t.Fatalf("response altered: %d %q %v", w.Code, w.Body.String(), w.Header())
	}

	entries := sink.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Method != http.MethodPost || e.Path != "/items" || e.StatusCode != http.StatusCreated {
		t.Errorf("entry = %+v", e)
	}
	if e.Duration != 250*time.Millisecond {
		t.Errorf("Duration = %v, want 250ms", e.Duration)
	}
	if e.ClientIP == "" {
		t.Error("ClientIP empty with includeIp enabled")
	}
	want := `🚀 2026-10-19T08:30:00.250Z | INFO | POST:"/items" | Status: 201 | Time: 250 ms`
	if e.Line != want {
		t.Errorf("Line = %q, want %q", e.Line, want)
	}
}

func TestMiddlewareClientIP(t *testing.T) {
	tests := []struct {
		includeIP bool
		want      string
	}{
		{true, "192.0.2.7"},
		{false, ""},
	}

	for _, tt := range tests {
		cfg := quietConfig()
		cfg.IncludeIP = tt.includeIP
		cfg.Format = "{ip}|{method}"
		sink := &recordingSink{}
		r := newTestEngine(t, cfg, newFakeClock(), sink)
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		r.ServeHTTP(httptest.NewRecorder(), req)

		entries := sink.Entries()
		if len(entries) != 1 {
			t.Fatalf("includeIp=%v: got %d entries", tt.includeIP, len(entries))
		}
		if entries[0].ClientIP != tt.want || entries[0].Line != tt.want+"|GET" {
			t.Errorf("includeIp=%v: ClientIP %q, Line %q", tt.includeIP, entries[0].ClientIP, entries[0].Line)
		}
	}
}

func TestMiddlewareLogsPanicAsServerError(t *testing.T) {
	sink := &recordingSink{}
	r := newTestEngine(t, quietConfig(), newFakeClock(), sink)
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	entries := sink.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].StatusCode != http.StatusInternalServerError || entries[0].Level != LevelError {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestMiddlewareLogsNotFound(t *testing.T) {
	sink := &recordingSink{}
	r := newTestEngine(t, quietConfig(), newFakeClock(), sink)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	entries := sink.Entries()
	if len(entries) != 1 || entries[0].StatusCode != http.StatusNotFound || entries[0].Level != LevelWarn {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestMiddlewareConcurrentRequestsKeepOwnTiming(t *testing.T) {
	sink := &recordingSink{}
	r := newTestEngine(t, quietConfig(), SystemClock(), sink)
	r.GET("/sleep/:ms", func(c *gin.Context) {
		ms, _ := strconv.Atoi(c.Param("ms"))
		time.Sleep(time.Duration(ms) * time.Millisecond)
		c.String(200+ms%7, "done")
	})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(ms int) {
			defer wg.Done()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, fmt.Sprintf("/sleep/%d", ms), nil))
		}(10 + i*2)
	}
	wg.Wait()

	entries := sink.Entries()
	if len(entries) != n {
		t.Fatalf("got %d entries, want %d", len(entries), n)
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		ms, err := strconv.Atoi(strings.TrimPrefix(e.Path, "/sleep/"))
		if err != nil {
			t.Fatalf("unexpected path %q", e.Path)
		}
		seen[e.Path] = true
		d := time.Duration(ms) * time.Millisecond
		if e.Duration < d || e.Duration > d+500*time.Millisecond {
			t.Errorf("%s: duration %v outside [%v, %v]", e.Path, e.Duration, d, d+500*time.Millisecond)
		}
		if e.StatusCode != 200+ms%7 {
			t.Errorf("%s: status %d, want %d", e.Path, e.StatusCode, 200+ms%7)
		}
	}
	if len(seen) != n {
		t.Errorf("got %d distinct paths, want %d", len(seen), n)
	}
}

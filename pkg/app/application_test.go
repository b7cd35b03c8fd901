package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"storagechat/pkg/config"
	"storagechat/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

type routes func(*httprouter.Router)

func (r routes) RegisterRoutes(router *httprouter.Router) { r(router) }

type countingStopper struct{ stopped atomic.Int32 }

func (s *countingStopper) Stop() { s.stopped.Add(1) }

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
		MaxRequestSize:    1024,
		IdempotencyTTL:    time.Minute,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		Log:               logger.Discard(),
	}
}

func newTestApp(t *testing.T, calls *atomic.Int32) *Application {
	a := NewApplication(testConfig())
	a.SetApp(
		routes(func(r *httprouter.Router) {
			r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
				w.WriteHeader(http.StatusOK)
			})
		}),
		routes(func(r *httprouter.Router) {
			r.POST("/api/v1/sessions/:id/messages", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"data":{}}`))
			})
		}),
	)
	t.Cleanup(a.stop)
	return a
}

func post(h http.Handler, path, contentType, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"message":"hi"}`))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApplication_MiddlewareChain(t *testing.T) {
	var calls atomic.Int32
	a := newTestApp(t, &calls)
	h := a.Handler()

	w := post(h, "/api/v1/sessions/s1/messages", "text/plain", "")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = post(h, "/api/v1/sessions/s1/messages", "application/json", "k1")
	assert.Equal(t, http.StatusOK, w.Code)

	// replayed from the idempotency cache, still counted by the rate limiter
	w = post(h, "/api/v1/sessions/s1/messages", "application/json", "k1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), calls.Load())

	w = post(h, "/api/v1/sessions/s1/messages", "application/json", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = post(h, "/api/v1/sessions/s2/messages", "application/json", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApplication_HealthBypassesRateLimit(t *testing.T) {
	var calls atomic.Int32
	h := newTestApp(t, &calls).Handler()

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestApplication_StopRunsShutdownHooks(t *testing.T) {
	a := NewApplication(testConfig())
	a.SetApp(routes(func(*httprouter.Router) {}), routes(func(*httprouter.Router) {}))

	s := &countingStopper{}
	closed := false
	a.OnShutdown(s)
	a.OnClose(func() error {
		closed = true
		return nil
	})

	a.stop()

	assert.Equal(t, int32(1), s.stopped.Load())
	assert.True(t, closed)
}

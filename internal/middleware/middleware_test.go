package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(Logger(logger))
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	})
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	line := buf.String()
	assert.Contains(t, line, `"level":"INFO"`)
	assert.Contains(t, line, `"status":201`)
	assert.Contains(t, line, `"bytes":5`)
	assert.Contains(t, line, `"path":"/ok"`)
	assert.NotContains(t, line, `"requestID":""`)

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/snippet/detail/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/snippet/detail/1", "/snippet/detail/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	exposition := rec.Body.String()
	assert.Contains(t, exposition, `snippets_http_requests_total{method="GET",route="/snippet/detail/{id}",status="200"} 2`)
	assert.Contains(t, exposition, `snippets_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, exposition, `snippets_http_request_duration_seconds_count{method="GET",route="/snippet/detail/{id}"} 2`)
}

func TestWrapDoesNotDoubleWrap(t *testing.T) {
	rec := httptest.NewRecorder()
	once := wrap(rec)
	assert.Same(t, once, wrap(once))
}

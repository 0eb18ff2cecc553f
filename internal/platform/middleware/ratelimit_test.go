package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/platform/ratelimit"
)

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	logger := slog.New(slog.DiscardHandler)

	t.Run("throttles per client ip", func(t *testing.T) {
		handler := RateLimit(ratelimit.NewInMemory(), 2, time.Minute, logger)(ok)

		for range 2 {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/wanted", nil)
			req.RemoteAddr = "1.2.3.4:5000"
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/wanted", nil)
		req.RemoteAddr = "1.2.3.4:5000"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), `"error":"rate_limited"`)

		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/wanted", nil)
		req.RemoteAddr = "9.9.9.9:5000"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("honors the forwarded client address", func(t *testing.T) {
		handler := RateLimit(ratelimit.NewInMemory(), 1, time.Minute, logger)(ok)

		first := httptest.NewRequest(http.MethodGet, "/wanted", nil)
		first.Header.Set("X-Forwarded-For", "7.7.7.7, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, first)
		require.Equal(t, http.StatusOK, rec.Code)

		second := httptest.NewRequest(http.MethodGet, "/wanted", nil)
		second.Header.Set("X-Forwarded-For", "7.7.7.7, 10.0.0.2")
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, second)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aidat-service/pkg/config"
	"aidat-service/pkg/ratelimit"
	"aidat-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	prometheus.InitMetrics(&config.Config{
		Metrics: config.MetricsConfig{Prefix: "aidat"},
	})
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, ip string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := ratelimit.New()
	mw := RateLimit(limiter, "forgot_password", 2, time.Hour)

	assert.Equal(t, http.StatusOK, doRequest(t, mw, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, mw, "10.0.0.1").Code)

	rec := doRequest(t, mw, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Çok fazla istek")
}

func TestRateLimitIsPerIP(t *testing.T) {
	limiter := ratelimit.New()
	mw := RateLimit(limiter, "forgot_password", 1, time.Hour)

	assert.Equal(t, http.StatusOK, doRequest(t, mw, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, mw, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, mw, "10.0.0.2").Code)
}

func TestRateLimitActionsAreIndependent(t *testing.T) {
	limiter := ratelimit.New()
	forgot := RateLimit(limiter, "forgot_password", 1, time.Hour)
	reset := RateLimit(limiter, "reset_password", 1, time.Hour)

	assert.Equal(t, http.StatusOK, doRequest(t, forgot, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, forgot, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, reset, "10.0.0.1").Code)
}

func TestRateLimitResetsAfterWindow(t *testing.T) {
	now := time.Now()
	limiter := ratelimit.NewWithClock(func() time.Time { return now })
	mw := RateLimit(limiter, "forgot_password", 1, time.Minute)

	assert.Equal(t, http.StatusOK, doRequest(t, mw, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, mw, "10.0.0.1").Code)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, doRequest(t, mw, "10.0.0.1").Code)
}

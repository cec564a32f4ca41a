package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

func Test_ipRateLimiter_allow(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(core.RateLimitConfig{AuthPerMinute: 6, AuthBurst: 2})
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"), "burst exhausted")
	assert.True(t, l.allow("10.0.0.2"), "other clients have their own bucket")

	// 6 per minute refills one token every 10s
	now = now.Add(10 * time.Second)
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))

	// idle visitors are forgotten
	now = now.Add(limiterIdleTTL + time.Second)
	assert.True(t, l.allow("10.0.0.3"))
	l.mu.Lock()
	assert.Len(t, l.visitors, 1)
	l.mu.Unlock()
}

func Test_ipRateLimiter_defaults(t *testing.T) {
	l := newIPRateLimiter(core.RateLimitConfig{})
	assert.Equal(t, 1, l.burst)
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
}

func Test_ipRateLimiter_middleware(t *testing.T) {
	app := echo.New()
	l := newIPRateLimiter(core.RateLimitConfig{AuthPerMinute: 1, AuthBurst: 1})
	app.POST("/token", func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusNoContent)
	}, l.middleware())

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2"))
}

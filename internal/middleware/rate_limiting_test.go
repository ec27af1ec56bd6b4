package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/gymrpg/internal/auth"
	"github.com/2beens/gymrpg/internal/middleware"
	"github.com/2beens/gymrpg/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestRateLimit(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("per owner key allowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		limiter := NewMockRequestRateLimiter(ctrl)
		limiter.EXPECT().
			Allow(gomock.Any(), "sync||owner||owner-1", redis_rate.PerMinute(10)).
			Return(&redis_rate.Result{Allowed: 1, Remaining: 9}, nil)

		req := httptest.NewRequest(http.MethodPost, "/sync/push", nil)
		req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{OwnerKey: "owner-1"}))
		rr := httptest.NewRecorder()
		middleware.RateLimit(limiter, "sync", 10, metrics.NewTestManager())(okHandler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("anonymous falls back to ip", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		limiter := NewMockRequestRateLimiter(ctrl)
		limiter.EXPECT().
			Allow(gomock.Any(), "sync||ip||83.12.53.65", gomock.Any()).
			Return(&redis_rate.Result{Allowed: 1}, nil)

		req := httptest.NewRequest(http.MethodGet, "/exercises", nil)
		req.RemoteAddr = "83.12.53.65:4411"
		rr := httptest.NewRecorder()
		middleware.RateLimit(limiter, "sync", 10, nil)(okHandler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("limited", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		limiter := NewMockRequestRateLimiter(ctrl)
		limiter.EXPECT().
			Allow(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&redis_rate.Result{Allowed: 0, RetryAfter: 1500 * time.Millisecond}, nil)

		metricsManager := metrics.NewTestManager()
		req := httptest.NewRequest(http.MethodPost, "/sync/push", nil)
		rr := httptest.NewRecorder()
		middleware.RateLimit(limiter, "sync", 10, metricsManager)(okHandler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "2", rr.Header().Get("Retry-After"))
		assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))
	})

	t.Run("limiter error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		limiter := NewMockRequestRateLimiter(ctrl)
		limiter.EXPECT().
			Allow(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("redis down"))

		req := httptest.NewRequest(http.MethodPost, "/sync/push", nil)
		rr := httptest.NewRecorder()
		middleware.RateLimit(limiter, "sync", 10, nil)(okHandler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestRequestMetrics(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	handler := middleware.RequestMetrics(metricsManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats/dashboard", nil))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRequests.WithLabelValues("GET", "202")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.GaugeRequests))
}

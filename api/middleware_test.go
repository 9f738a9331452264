package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/metrics"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func limitedRouter(limiter RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(limiter, 5, time.Minute, logger.NewNop()))
	r.POST("/bookings", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name     string
		allowed  bool
		err      error
		wantCode int
	}{
		{"under limit", true, nil, http.StatusCreated},
		{"over limit", false, nil, http.StatusTooManyRequests},
		{"limiter down", false, errors.New("redis: connection refused"), http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &MockRateLimiter{}
			limiter.On("Allow", mock.Anything, "192.0.2.1", 5, time.Minute).Return(tt.allowed, tt.err)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/bookings", nil)
			req.RemoteAddr = "192.0.2.1:4711"
			limitedRouter(limiter).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			limiter.AssertExpectations(t)
		})
	}
}

func TestRateLimit_RejectionKind(t *testing.T) {
	limiter := &MockRateLimiter{}
	limiter.On("Allow", mock.Anything, mock.Anything, 5, time.Minute).Return(false, nil)

	w := httptest.NewRecorder()
	limitedRouter(limiter).ServeHTTP(w, httptest.NewRequest("POST", "/bookings", nil))

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, kindRateLimited, body.Kind)
	assert.NotEqual(t, domain.KindTransactionAborted, body.Kind)
}

func TestRateLimit_Disabled(t *testing.T) {
	w := httptest.NewRecorder()
	limitedRouter(nil).ServeHTTP(w, httptest.NewRequest("POST", "/bookings", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "test")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(m), AccessLog(logger.NewNop()))
	r.GET("/flights/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/flights/1", "/flights/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/flights/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(""))
	assert.Equal(t, http.StatusInternalServerError, statusFor("INTERNAL"))
}

package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 业务指标
	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_sessions_completed_total",
			Help: "Completed coaching sessions by mode",
		},
		[]string{"mode"},
	)

	OfflineRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_offline_requests_total",
			Help: "Offline conversion requests by outcome",
		},
		[]string{"outcome"},
	)

	// 尽力而为副作用失败计数（日历更新、机器人取消、转写、通知、入队等）
	BestEffortFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_best_effort_failures_total",
			Help: "Non-fatal side effect failures by step",
		},
		[]string{"step"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SessionsCompleted)
	prometheus.MustRegister(OfflineRequests)
	prometheus.MustRegister(BestEffortFailures)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

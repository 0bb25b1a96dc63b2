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

	// 引擎侧计数器
	HeartbeatsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reading_heartbeats_applied_total",
		Help: "Heartbeats that credited duration",
	})

	HeartbeatsStale = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reading_heartbeats_stale_total",
		Help: "Retried/stale heartbeats absorbed as no-ops",
	})

	SessionsReconciled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reading_sessions_reconciled_total",
		Help: "Abandoned sessions auto-ended by the sweep",
	})

	BadgesAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reading_badges_awarded_total",
		Help: "User badges newly earned",
	})

	LeaderboardSettlements = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reading_leaderboard_settlements_total",
		Help: "Leaderboard windows settled",
	})
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(HeartbeatsApplied)
	prometheus.MustRegister(HeartbeatsStale)
	prometheus.MustRegister(SessionsReconciled)
	prometheus.MustRegister(BadgesAwarded)
	prometheus.MustRegister(LeaderboardSettlements)
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

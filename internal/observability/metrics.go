package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_tracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled, labeled by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitness_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency distribution, labeled by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	reconcileCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_tracker",
		Subsystem: "workouts",
		Name:      "reconciliations_total",
		Help:      "Workout exercise tree reconciliations, labeled by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(requestCounter, requestDuration, reconcileCounter)
}

// RequestMetrics is a gin middleware recording per-route request counts and
// latencies. The route template (not the raw path) is used as the label to
// keep cardinality bounded.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordReconciliation counts one workout tree reconciliation attempt.
func RecordReconciliation(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	reconcileCounter.WithLabelValues(outcome).Inc()
}

package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submissions counts attendance submissions by outcome (created, updated).
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classattend",
		Name:      "submissions_total",
		Help:      "Attendance submissions by outcome.",
	}, []string{"outcome"})

	Edits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "classattend",
		Name:      "edits_total",
		Help:      "Attendance records edited in place.",
	})

	Summaries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "classattend",
		Name:      "summaries_total",
		Help:      "Student attendance summaries computed.",
	})

	// ReconcileDrift counts courses whose stored totalClasses disagreed with their record count.
	ReconcileDrift = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "classattend",
		Name:      "reconcile_drift_total",
		Help:      "Courses repaired by the totalClasses reconciler.",
	})

	QueueEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classattend",
		Name:      "queue_events_total",
		Help:      "Attendance events by type and result.",
	}, []string{"type", "result"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classattend",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classattend",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Gin records request count and latency per matched route.
func Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

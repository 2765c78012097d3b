package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors of the service
type Metrics struct {
	// Request metrics
	RequestDuration *prometheus.HistogramVec
	RequestCounter  *prometheus.CounterVec
	ErrorCounter    *prometheus.CounterVec

	// Domain metrics
	TenantsCreated      prometheus.Counter
	TenantsDeleted      prometheus.Counter
	MembershipsCreated  *prometheus.CounterVec
	MembershipsRemoved  prometheus.Counter
	RoleChanges         *prometheus.CounterVec
	InvitationsCreated  prometheus.Counter
	InvitationsAccepted prometheus.Counter

	// Email dispatch metrics
	EmailsDispatched *prometheus.CounterVec
	EmailQueueDepth  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers all collectors under namespace on reg.
// A nil reg uses a fresh registry, which keeps tests independent of each other.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "path"},
		),
		ErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors",
			},
			[]string{"method", "path", "status"},
		),
		TenantsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenants_created_total",
			Help:      "Total number of tenants created",
		}),
		TenantsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenants_deleted_total",
			Help:      "Total number of tenants deleted after their last member left",
		}),
		MembershipsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memberships_created_total",
				Help:      "Total number of memberships created",
			},
			[]string{"role"},
		),
		MembershipsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memberships_removed_total",
			Help:      "Total number of memberships removed by owners or admins",
		}),
		RoleChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "membership_role_changes_total",
				Help:      "Total number of role changes",
			},
			[]string{"kind"},
		),
		InvitationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_created_total",
			Help:      "Total number of invitations created",
		}),
		InvitationsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_accepted_total",
			Help:      "Total number of invitations accepted on sign-up",
		}),
		EmailsDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_dispatched_total",
				Help:      "Total number of email jobs processed",
			},
			[]string{"job", "result"},
		),
		EmailQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "email_queue_depth",
			Help:      "Number of email jobs waiting for a worker",
		}),
		gatherer: reg,
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		statusText := strconv.Itoa(status)

		m.RequestDuration.WithLabelValues(c.Request.Method, path, statusText).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(c.Request.Method, path).Inc()
		if status >= 400 {
			m.ErrorCounter.WithLabelValues(c.Request.Method, path, statusText).Inc()
		}
	}
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

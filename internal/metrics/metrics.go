package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics метрики Prometheus дашборда. Все методы безопасны для nil.
type Metrics struct {
	// Состояние
	Campaigns    *prometheus.GaugeVec
	Accounts     prometheus.Gauge
	Users        prometheus.Gauge
	Sessions     prometheus.Gauge
	StateVersion prometheus.Gauge
	TotalCreated prometheus.Gauge

	// Аутентификация
	LoginsTotal *prometheus.CounterVec

	// Снимки и кэш
	SnapshotWritesTotal *prometheus.CounterVec
	SnapshotDropped     prometheus.Counter
	ViewCacheTotal      *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Campaigns: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dashboard_campaigns",
				Help: "Number of campaigns by status",
			},
			[]string{"status"},
		),
		Accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_accounts",
			Help: "Number of managed accounts",
		}),
		Users: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_users",
			Help: "Number of dashboard users",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_sessions_active",
			Help: "Number of live sessions",
		}),
		StateVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_state_version",
			Help: "Current state version",
		}),
		TotalCreated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_campaigns_created",
			Help: "Campaigns ever created, deletions included",
		}),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		SnapshotWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_snapshot_writes_total",
				Help: "Snapshot writes by result",
			},
			[]string{"result"},
		),
		SnapshotDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_snapshot_dropped_total",
			Help: "Snapshots dropped because the write buffer was full",
		}),
		ViewCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_view_cache_total",
				Help: "View cache lookups by result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.Campaigns,
		m.Accounts,
		m.Users,
		m.Sessions,
		m.StateVersion,
		m.TotalCreated,
		m.LoginsTotal,
		m.SnapshotWritesTotal,
		m.SnapshotDropped,
		m.ViewCacheTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдаёт метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveState обновляет gauges по текущему обзору и счётчикам
func (m *Metrics) ObserveState(version uint64, o models.Overview, users, sessions int) {
	if m == nil {
		return
	}
	m.Campaigns.WithLabelValues("active").Set(float64(o.Active))
	m.Campaigns.WithLabelValues("deleted").Set(float64(o.Deleted))
	m.Accounts.Set(float64(o.Accounts))
	m.TotalCreated.Set(float64(o.TotalCreated))
	m.Users.Set(float64(users))
	m.Sessions.Set(float64(sessions))
	m.StateVersion.Set(float64(version))
}

func (m *Metrics) IncLogin(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// IncSnapshotWrite result: ok, stale, error
func (m *Metrics) IncSnapshotWrite(result string) {
	if m == nil {
		return
	}
	m.SnapshotWritesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncSnapshotDropped() {
	if m == nil {
		return
	}
	m.SnapshotDropped.Inc()
}

func (m *Metrics) IncViewCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ViewCacheTotal.WithLabelValues(result).Inc()
}

// GinMiddleware считает запросы и их длительность по шаблону маршрута
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDurationSeconds.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

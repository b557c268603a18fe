package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns every collector the service exports.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	deliveryAttempts  *prometheus.CounterVec
	deliveryDuration  *prometheus.HistogramVec
	notifications     *prometheus.CounterVec
	signupTransitions *prometheus.CounterVec
	jobs              *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A collector that
// is already registered is reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_http_requests_total",
			Help: "HTTP requests processed, by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courier_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		deliveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_delivery_attempts_total",
			Help: "Attempts against the email service, by endpoint and result.",
		}, []string{"endpoint", "result"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courier_delivery_duration_seconds",
			Help:    "Latency of single email service attempts.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"endpoint"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_notifications_total",
			Help: "Best-effort notifications, by kind and result.",
		}, []string{"kind", "result"}),
		signupTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_signup_transitions_total",
			Help: "Newsletter signup state transitions.",
		}, []string{"transition"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_email_jobs_total",
			Help: "Processed email jobs, by final status of the attempt.",
		}, []string{"status"}),
	}

	var err error
	if m.httpRequests, err = register(reg, m.httpRequests); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, m.httpDuration); err != nil {
		return nil, err
	}
	if m.deliveryAttempts, err = register(reg, m.deliveryAttempts); err != nil {
		return nil, err
	}
	if m.deliveryDuration, err = register(reg, m.deliveryDuration); err != nil {
		return nil, err
	}
	if m.notifications, err = register(reg, m.notifications); err != nil {
		return nil, err
	}
	if m.signupTransitions, err = register(reg, m.signupTransitions); err != nil {
		return nil, err
	}
	if m.jobs, err = register(reg, m.jobs); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Middleware records one sample per request, labelled by the matched
// route template so path parameters do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveDelivery(endpoint, result string, elapsed time.Duration) {
	m.deliveryAttempts.WithLabelValues(endpoint, result).Inc()
	m.deliveryDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) Notification(kind, result string) {
	m.notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) SignupTransition(transition string) {
	m.signupTransitions.WithLabelValues(transition).Inc()
}

func (m *Metrics) Job(status string) {
	m.jobs.WithLabelValues(status).Inc()
}

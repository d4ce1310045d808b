package metrics

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts the outcomes of webhook dispatches and provider calls.
type Collector interface {
	RecordWebhookEvent(result string)
	RecordRegistrantCreated()
	RecordRegistrantFailed()
	RecordProviderStatus(provider string, statusCode int)
	RecordBroadcastCreated()
}

type PrometheusCollector struct {
	webhookEvents      *prometheus.CounterVec
	registrantsCreated prometheus.Counter
	registrantsFailed  prometheus.Counter
	providerStatus     *prometheus.CounterVec
	broadcastsCreated  prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zoomlms_webhook_events_total",
			Help: "Webhook dispatch outcomes.",
		}, []string{"result"}),
		registrantsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zoomlms_registrants_created_total",
			Help: "Registrants successfully created against the meeting provider.",
		}),
		registrantsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zoomlms_registrants_failed_total",
			Help: "Registrants dropped after exhausting retries or provider errors.",
		}),
		providerStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zoomlms_provider_http_status_total",
			Help: "Provider responses by HTTP status code.",
		}, []string{"provider", "status_code"}),
		broadcastsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zoomlms_broadcasts_created_total",
			Help: "YouTube live broadcasts created.",
		}),
	}

	reg.MustRegister(
		c.webhookEvents,
		c.registrantsCreated,
		c.registrantsFailed,
		c.providerStatus,
		c.broadcastsCreated,
	)
	return c
}

func (c *PrometheusCollector) RecordWebhookEvent(result string) {
	c.webhookEvents.WithLabelValues(result).Inc()
}

func (c *PrometheusCollector) RecordRegistrantCreated() {
	c.registrantsCreated.Inc()
}

func (c *PrometheusCollector) RecordRegistrantFailed() {
	c.registrantsFailed.Inc()
}

func (c *PrometheusCollector) RecordProviderStatus(provider string, statusCode int) {
	c.providerStatus.WithLabelValues(provider, strconv.Itoa(statusCode)).Inc()
}

func (c *PrometheusCollector) RecordBroadcastCreated() {
	c.broadcastsCreated.Inc()
}

// Handler exposes the registry on an echo route.
func Handler(reg *prometheus.Registry) echo.HandlerFunc {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return echo.WrapHandler(h)
}

// Noop is a Collector that discards everything. Used in tests.
type Noop struct{}

func (Noop) RecordWebhookEvent(string)        {}
func (Noop) RecordRegistrantCreated()         {}
func (Noop) RecordRegistrantFailed()          {}
func (Noop) RecordProviderStatus(string, int) {}
func (Noop) RecordBroadcastCreated()          {}

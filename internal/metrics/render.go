package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "estemplate"

// Render statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Render Prometheus metrics.
var (
	RenderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total number of mapping and template renders",
		},
		[]string{"operation", "status"}, // operation: mapping / template / publish
	)

	RenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render duration in seconds",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"operation"},
	)

	TemplateStoreTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_store_total",
			Help:      "Published template store lookups",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	CatalogDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_documents",
			Help:      "Number of documents loaded into the schema catalog",
		},
	)
)

var registerRender sync.Once

// RegisterRenderMetrics registers render metrics. Safe to call more than once.
func RegisterRenderMetrics() {
	registerRender.Do(func() {
		prometheus.MustRegister(RenderTotal)
		prometheus.MustRegister(RenderDuration)
		prometheus.MustRegister(TemplateStoreTotal)
		prometheus.MustRegister(CatalogDocuments)
	})
}

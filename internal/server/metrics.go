package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/azcost/internal/model"
)

// metrics live on a per-service registry.
type metrics struct {
	registry *prometheus.Registry

	uploads         *prometheus.CounterVec
	uploadDuration  prometheus.Histogram
	uploadBytes     prometheus.Histogram
	totalCost       prometheus.Gauge
	records         prometheus.Gauge
	recommendations *prometheus.GaugeVec
	subscribers     prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "azcost",
				Name:      "uploads_total",
				Help:      "Number of CSV uploads by result.",
			},
			[]string{"result"},
		),
		uploadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "azcost",
				Name:      "upload_duration_seconds",
				Help:      "Time to parse and aggregate an upload.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		uploadBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "azcost",
				Name:      "upload_bytes",
				Help:      "Size of successfully parsed uploads.",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		totalCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "azcost",
			Name:      "summary_total_cost",
			Help:      "Total cost of the current summary.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "azcost",
			Name:      "summary_records",
			Help:      "Records aggregated into the current summary.",
		}),
		recommendations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "azcost",
				Name:      "summary_recommendations",
				Help:      "Recommendations in the current summary by severity.",
			},
			[]string{"severity"},
		),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "azcost",
			Name:      "stream_subscribers",
			Help:      "Connected event stream clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.uploads,
		m.uploadDuration,
		m.uploadBytes,
		m.totalCost,
		m.records,
		m.recommendations,
		m.subscribers,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observeSummary(s model.DashboardSummary, bytes int64) {
	m.uploadBytes.Observe(float64(bytes))
	m.totalCost.Set(costFloat(s.TotalCost))
	m.records.Set(float64(s.KPIs.RecordCount))

	counts := map[model.Severity]int{
		model.SeverityInfo:     0,
		model.SeverityWarning:  0,
		model.SeverityCritical: 0,
	}
	for _, r := range s.Recommendations {
		counts[r.Severity]++
	}
	for sev, n := range counts {
		m.recommendations.WithLabelValues(string(sev)).Set(float64(n))
	}
}

func costFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

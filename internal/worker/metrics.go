package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry             *prometheus.Registry
	jobsTotal            *prometheus.CounterVec
	jobDuration          *prometheus.HistogramVec
	activeJobs           prometheus.Gauge
	pixelsConvertedTotal prometheus.Counter
	bytesWrittenTotal    prometheus.Counter
	webhookFailuresTotal *prometheus.CounterVec
	codecErrorsTotal     *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chromaflow_worker_jobs_total",
			Help: "Total conversion jobs by mode and outcome.",
		}, []string{"mode", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chromaflow_worker_job_duration_seconds",
			Help:    "Conversion job duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode", "status"}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chromaflow_worker_active_jobs",
			Help: "Conversions currently running in this worker.",
		}),
		pixelsConvertedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chromaflow_worker_pixels_converted_total",
			Help: "Pixels run through a color transform.",
		}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chromaflow_worker_bytes_written_total",
			Help: "Encoded output bytes written to blob storage.",
		}),
		webhookFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chromaflow_worker_webhook_failures_total",
			Help: "Webhook deliveries that exhausted their attempts.",
		}, []string{"event"}),
		codecErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chromaflow_worker_codec_errors_total",
			Help: "Conversion failures by codec error kind.",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.jobsTotal,
		m.jobDuration,
		m.activeJobs,
		m.pixelsConvertedTotal,
		m.bytesWrittenTotal,
		m.webhookFailuresTotal,
		m.codecErrorsTotal,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of extraction jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "extraction_job_duration_seconds",
	Help:    "Total time spent on one extraction job, by terminal status.",
	Buckets: []float64{.5, 1, 5, 15, 30, 60, 120, 300},
}, []string{"status"})

var extractedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "extracted_records_total",
	Help: "Records extracted, by extraction mode.",
}, []string{"mode"})

var webhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "webhook_deliveries_total",
	Help: "Webhook delivery attempts, by outcome.",
}, []string{"outcome"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}

func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	jobDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CountExtractedRecords(mode string, count int) {
	extractedRecords.WithLabelValues(mode).Add(float64(count))
}

func CountWebhookDelivery(outcome string) {
	webhookDeliveries.WithLabelValues(outcome).Inc()
}

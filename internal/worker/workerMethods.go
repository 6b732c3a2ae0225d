package worker

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/delivery"
	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
	jobmodel "github.com/dlemos/cpf-extractor/internal/domain/jobModel"
	"github.com/dlemos/cpf-extractor/internal/metrics"
)

// executeJob runs one job start to finish: obtain the document bytes,
// extract, deliver, reach a terminal state. Exactly one webhook attempt
// happens no matter which step failed.
func executeJob(currentJob jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(currentJob.Status), time.Since(start))
	}()
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, currentJob.TraceId)
	log := logger.With("traceId", currentJob.TraceId, "jobId", currentJob.Id)
	log.Info("Starting background processing")

	currentJob = saveJobState(ctx, currentJob, jobmodel.JobStatusRunning)

	raw, err := documentBytes(ctx, currentJob)
	var records []commonModels.Record
	if err == nil {
		records, err = _extractor.Extract(ctx, raw)
	}

	var payload delivery.Payload
	if err != nil {
		log.Error("Error in background extraction", "error", err)
		currentJob.Error = jobmodel.JobError{Message: err.Error()}
		payload = delivery.ErrorPayload(currentJob.Id, err)
	} else {
		payload = delivery.SuccessPayload(currentJob.Id, records)
	}

	terminal := jobmodel.JobStatusDelivered
	if deliverErr := _deliverer.Deliver(ctx, currentJob.CallbackURL, payload); deliverErr != nil {
		//single attempt by contract: log and move on, the submitter
		//already got its acknowledgement
		log.Error("Webhook delivery failed", "error", deliverErr, "callback", currentJob.CallbackURL)
		terminal = jobmodel.JobStatusDeliveryFailed
		metrics.CountWebhookDelivery("failed")
	} else {
		metrics.CountWebhookDelivery("delivered")
	}

	currentJob.EndTime = time.Now()
	saveJobState(ctx, currentJob, terminal)
	log.Info("Job finished", "status", terminal)
}

// documentBytes resolves the job's source: read-and-discard the temp
// upload, or download the remote URL.
func documentBytes(ctx context.Context, currentJob jobmodel.Job) ([]byte, error) {
	if currentJob.Source == jobmodel.SourceURL {
		return _downloader.Download(ctx, currentJob.DocumentURL)
	}

	raw, err := os.ReadFile(currentJob.DocumentPath)
	if removeErr := os.Remove(currentJob.DocumentPath); removeErr != nil {
		logger.Warn("Error removing temp document", "path", currentJob.DocumentPath, "error", removeErr)
	}
	return raw, err
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, currentJob jobmodel.Job, status jobmodel.JobStatus) jobmodel.Job {
	currentJob.Status = status
	if err := _jobService.JobStore.SaveJob(ctx, currentJob); err != nil {
		logger.Error("Failed to save job state", "error", err)
	}
	return currentJob
}

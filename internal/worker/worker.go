package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/delivery"
	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
	"github.com/dlemos/cpf-extractor/internal/job"
	"github.com/dlemos/cpf-extractor/internal/metrics"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

// Extractor is the document-to-records pipeline the workers run.
type Extractor interface {
	Extract(ctx context.Context, raw []byte) ([]commonModels.Record, error)
}

// Downloader fetches remote documents for URL-sourced jobs.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Deliverer posts the outcome to the job's callback, once.
type Deliverer interface {
	Deliver(ctx context.Context, callbackURL string, payload delivery.Payload) error
}

var (
	_jobService        *job.Service
	_extractor         Extractor
	_downloader        Downloader
	_deliverer         Deliverer
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logger_i.Logger
	minWorkerCount     = config.MinWorkerCount
)

func InitServices(jobService *job.Service, extractor Extractor, downloader Downloader, deliverer Deliverer) {
	_jobService = jobService
	_extractor = extractor
	_downloader = downloader
	_deliverer = deliverer
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	go dispatcher()
}

func dispatcher() {
	createWorker()
	logger.Info("Dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
			logger.Info("Creating new worker", "workerCount", currentWorkerCount)
			createWorker()
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	go worker()
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	logger.Info("Created new worker")
}

func worker() {
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			executeJob(currentJob)
			metrics.DecrementJobsInQueue()

		case <-stopWorkerChannel:
			removeWorker("Stop worker signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			// Worker was idle for too long, retire unless we are at the floor
			if atomic.LoadInt64(&currentWorkerCount) > minWorkerCount {
				removeWorker("Idle worker timeout - Removed worker")
				return
			}
		}
	}
}

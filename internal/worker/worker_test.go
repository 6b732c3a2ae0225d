package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dlemos/cpf-extractor/internal/delivery"
	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
	"github.com/dlemos/cpf-extractor/internal/domain/jobModel"
	"github.com/dlemos/cpf-extractor/internal/job"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

// MockExtractor counts invocations and returns a canned result.
type MockExtractor struct {
	ProcessedCount int32
	Records        []commonModels.Record
	Err            error
}

func (m *MockExtractor) Extract(ctx context.Context, raw []byte) ([]commonModels.Record, error) {
	atomic.AddInt32(&m.ProcessedCount, 1)
	return m.Records, m.Err
}

type MockDownloader struct {
	OnDownload func(ctx context.Context, url string) ([]byte, error)
}

func (m *MockDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	if m.OnDownload != nil {
		return m.OnDownload(ctx, url)
	}
	return []byte("%PDF-1.4"), nil
}

// MockDeliverer records every payload it is handed.
type MockDeliverer struct {
	mu       sync.Mutex
	Payloads []delivery.Payload
	Err      error
}

func (m *MockDeliverer) Deliver(ctx context.Context, callbackURL string, payload delivery.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payloads = append(m.Payloads, payload)
	return m.Err
}

func (m *MockDeliverer) Delivered() []delivery.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]delivery.Payload(nil), m.Payloads...)
}

type MockJobStore struct {
	mu       sync.Mutex
	SavedJob jobModel.Job
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SavedJob.Id == jobId {
		return m.SavedJob, true
	}
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SavedJob = j
	return nil
}

func newTestService(store jobModel.JobStore) *job.Service {
	return &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          store,
	}
}

func TestWorkerPool_Flow(t *testing.T) {
	// 1. Setup
	jobSvc := newTestService(&MockJobStore{})
	mockExtractor := &MockExtractor{Records: []commonModels.Record{{Name: "FULANO DE TAL", CPF: "12345678901"}}}
	mockDeliverer := &MockDeliverer{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockExtractor, &MockDownloader{}, mockDeliverer)
	InitWorkerPool(stopChan, wg)

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true

		// Give it a millisecond to spawn
		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker processes a URL job", func(t *testing.T) {
		testJob := jobModel.Job{Id: "test-1", Source: jobModel.SourceURL, DocumentURL: "http://example.com/doc.pdf"}
		jobSvc.JobChannel <- testJob

		// Wait for worker to pick up and process
		time.Sleep(100 * time.Millisecond)

		processed := atomic.LoadInt32(&mockExtractor.ProcessedCount)
		if processed != 1 {
			t.Errorf("Expected 1 job processed, got %d", processed)
		}
		payloads := mockDeliverer.Delivered()
		if len(payloads) != 1 {
			t.Fatalf("Expected exactly 1 delivery, got %d", len(payloads))
		}
		records, ok := payloads[0].Data.([]commonModels.Record)
		if payloads[0].Status != delivery.StatusSuccess || !ok || len(records) != 1 {
			t.Errorf("Expected success payload with 1 record, got %+v", payloads[0])
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestExecuteJob_UploadConsumesTempFile(t *testing.T) {
	logger = logger_i.NewLogger("TestWorkerPool")
	store := &MockJobStore{}
	mockDeliverer := &MockDeliverer{}
	InitServices(newTestService(store), &MockExtractor{}, &MockDownloader{}, mockDeliverer)

	tempFile := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(tempFile, []byte("%PDF-1.4"), 0600); err != nil {
		t.Fatal(err)
	}

	executeJob(jobModel.Job{Id: "upload-1", Source: jobModel.SourceUpload, DocumentPath: tempFile, CallbackURL: "http://callback"})

	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("Expected temp file to be removed after processing")
	}
	if store.SavedJob.Status != jobModel.JobStatusDelivered {
		t.Errorf("Expected terminal status DELIVERED, got %s", store.SavedJob.Status)
	}
}

func TestExecuteJob_FetchFailureDeliversError(t *testing.T) {
	logger = logger_i.NewLogger("TestWorkerPool")
	store := &MockJobStore{}
	mockExtractor := &MockExtractor{}
	mockDeliverer := &MockDeliverer{}
	downloader := &MockDownloader{
		OnDownload: func(ctx context.Context, url string) ([]byte, error) {
			return nil, &commonModels.FetchError{StatusCode: 404}
		},
	}
	InitServices(newTestService(store), mockExtractor, downloader, mockDeliverer)

	executeJob(jobModel.Job{Id: "fetch-404", Source: jobModel.SourceURL, DocumentURL: "http://example.com/gone.pdf", CallbackURL: "http://callback"})

	if atomic.LoadInt32(&mockExtractor.ProcessedCount) != 0 {
		t.Error("Extractor must not run when the download fails")
	}
	payloads := mockDeliverer.Delivered()
	if len(payloads) != 1 {
		t.Fatalf("Expected exactly 1 delivery, got %d", len(payloads))
	}
	if payloads[0].Status != delivery.StatusError {
		t.Errorf("Expected error payload, got %+v", payloads[0])
	}
	if payloads[0].Error != "failed to download PDF: 404" {
		t.Errorf("Unexpected error message: %q", payloads[0].Error)
	}
}

func TestExecuteJob_DeliveryFailureIsTerminal(t *testing.T) {
	logger = logger_i.NewLogger("TestWorkerPool")
	store := &MockJobStore{}
	mockDeliverer := &MockDeliverer{Err: context.DeadlineExceeded}
	InitServices(newTestService(store), &MockExtractor{}, &MockDownloader{}, mockDeliverer)

	executeJob(jobModel.Job{Id: "dead-callback", Source: jobModel.SourceURL, DocumentURL: "http://example.com/doc.pdf", CallbackURL: "http://unreachable"})

	// one attempt, then the job ends - nothing retries
	if len(mockDeliverer.Delivered()) != 1 {
		t.Fatalf("Expected exactly 1 delivery attempt, got %d", len(mockDeliverer.Delivered()))
	}
	if store.SavedJob.Status != jobModel.JobStatusDeliveryFailed {
		t.Errorf("Expected terminal status DELIVERY_FAILED, got %s", store.SavedJob.Status)
	}
	if store.SavedJob.EndTime.IsZero() {
		t.Error("Expected EndTime to be set on terminal state")
	}
}

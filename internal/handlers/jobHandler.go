package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/consulta"
	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
	"github.com/dlemos/cpf-extractor/internal/domain/jobModel"
	"github.com/dlemos/cpf-extractor/internal/job"
	"github.com/dlemos/cpf-extractor/internal/metrics"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

// Extractor runs the synchronous extraction pipeline inline.
type Extractor interface {
	Extract(ctx context.Context, raw []byte) ([]commonModels.Record, error)
}

// Downloader fetches a remote document for the sync URL endpoint.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// ConsultaService is the browser-backed lookup surface, covering both
// the transparency portal and the Receita Federal status form.
type ConsultaService interface {
	Consultar(ctx context.Context, cpf string) (consulta.Result, error)
	ConsultarReceita(ctx context.Context, cpf, dataNascimento string) (consulta.ReceitaResult, error)
	Ready() bool
}

var (
	handlerInstance *RequestHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
	logRH           *logger_i.Logger
)

type RequestHandler struct {
	service    *job.Service
	extractor  Extractor
	downloader Downloader
	consulta   ConsultaService
}

func InitRequestHandler(jobService *job.Service, extractor Extractor, downloader Downloader, consultaSvc ConsultaService) {
	once.Do(func() {
		handlerInstance = &RequestHandler{
			service:    jobService,
			extractor:  extractor,
			downloader: downloader,
			consulta:   consultaSvc,
		}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting request handler")
	})
}

type newJobData struct {
	requestId    string
	traceId      string
	callbackURL  string
	source       jobModel.SourceType
	documentPath string
	documentURL  string
}

func CreateNewJob(newJob newJobData) {
	logJH.Info("Accepted async extraction job", "requestId", newJob.requestId, "traceId", newJob.traceId, "source", newJob.source)
	handlerInstance.pushToJobChannel(newJob)
}

// private methods
func (h *RequestHandler) pushToJobChannel(newJob newJobData) {
	_job := jobModel.Job{
		Id:           newJob.requestId,
		TraceId:      newJob.traceId,
		Source:       newJob.source,
		DocumentPath: newJob.documentPath,
		DocumentURL:  newJob.documentURL,
		CallbackURL:  newJob.callbackURL,
		CreatedTime:  time.Now(),
		Status:       jobModel.JobStatusPending,
	}

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := h.service.JobStore.SaveJob(ctx, _job); err != nil {
		logJH.Error("Failed to save pending job state", "error", err)
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //blocking send to prevent the system from being overwhelmed

	//every extraction job is heavy (OCR can take minutes), so signal
	//the dispatcher each time; the pool caps its own growth
	atomic.AddInt64(&h.service.RequestCount, 1)
	metrics.StartDispatcherSignalCount()
	h.service.DispatcherChannel <- true
}

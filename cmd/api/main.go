// @title           CPF Extractor API
// @version         1.0
// @description     Extracts CPF + name records from PDF documents, with OCR fallback and async webhook delivery
// @host      localhost:8000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/consulta"
	"github.com/dlemos/cpf-extractor/internal/customHttpClient"
	"github.com/dlemos/cpf-extractor/internal/data/store"
	"github.com/dlemos/cpf-extractor/internal/delivery"
	jobmodel "github.com/dlemos/cpf-extractor/internal/domain/jobModel"
	"github.com/dlemos/cpf-extractor/internal/extract"
	"github.com/dlemos/cpf-extractor/internal/fetch"
	"github.com/dlemos/cpf-extractor/internal/handlers"
	"github.com/dlemos/cpf-extractor/internal/job"
	"github.com/dlemos/cpf-extractor/internal/ocr"
	"github.com/dlemos/cpf-extractor/internal/server"
	"github.com/dlemos/cpf-extractor/internal/worker"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job store - redis first, in-memory fallback
	var jobStore jobmodel.JobStore
	if redisStore := store.GetRedisJobStore(serviceContext); redisStore != nil {
		jobStore = redisStore
	} else {
		logger.Error("Redis job store is offline, falling back to in-memory")
		jobStore = store.InitInMemoryJobStore()
	}

	logger.Info("Starting job service")
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	})

	//downloads, webhook deliveries and the browser all honor the same proxy
	transport := customHttpClient.NewTransport(config.ProxyServer, config.ProxyUsername, config.ProxyPassword)
	fetcher := fetch.NewFetcher(transport)
	deliverer := delivery.NewDeliverer(transport)

	ocrExtractor := ocr.NewExtractor(ocr.Config{
		Language: config.OCRLanguage,
		DPI:      config.OCRDPI,
	})
	extractor := extract.NewExtractor(ocrExtractor)

	consultaService := consulta.NewService(consulta.Config{
		ProxyServer:   config.ProxyServer,
		ProxyUsername: config.ProxyUsername,
		ProxyPassword: config.ProxyPassword,
	})
	if err := consultaService.Start(); err != nil {
		//extraction endpoints keep working without the browser
		logger.Error("Browser failed to start, /consultar is unavailable", "error", err)
	}
	defer consultaService.Close()

	handlers.InitRequestHandler(service, extractor, fetcher, consultaService)

	//init worker pool
	worker.InitServices(service, extractor, fetcher, deliverer)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

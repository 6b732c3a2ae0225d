package middleware

import (
	"net/http"
	"strconv"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/handlers"
	"github.com/dlemos/cpf-extractor/internal/metrics"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
	id           string
}

var HealthHandler = Wrap(handlers.HealthHandler)
var VersionHandler = Wrap(handlers.VersionHandler)

var ExtractPDFHandler = Wrap(handlers.ExtractPDFHandler)
var ExtractPDFUrlHandler = Wrap(handlers.ExtractPDFUrlHandler)
var ExtractPDFAsyncHandler = Wrap(handlers.ExtractPDFAsyncHandler)
var ExtractPDFUrlAsyncHandler = Wrap(handlers.ExtractPDFUrlAsyncHandler)
var ConsultarHandler = Wrap(handlers.ConsultarHandler)
var ConsultarReceitaHandler = Wrap(handlers.ConsultarReceitaHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}
func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Info("New request received")
	//TODO:make this cleaner
	re = injectTrace(re)
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re //stop if auth fails, Wrap writes the response
	}
	if config.RateLimiterEnabled {
		re = rateLimiter(re)
	}

	return re
}

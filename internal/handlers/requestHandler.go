package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/dlemos/cpf-extractor/internal/adapter"
	"github.com/dlemos/cpf-extractor/internal/api"
	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/domain/jobModel"
)

var (
	nonDigit     = regexp.MustCompile(`\D`)
	birthDateFmt = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)
)

// ExtractPDFHandler godoc
// @Summary      Extract records from an uploaded PDF
// @Description  Accepts a multipart PDF upload, runs the extraction pipeline inline and returns the records.
// @Tags         Extraction
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "The PDF document"
// @Success      200  {object}  api.ExtractResponse
// @Failure      400  {object}  api.ErrorResponse  "Missing or oversized file"
// @Failure      500  {object}  api.ErrorResponse  "Document cannot be opened"
// @Router       /extract-pdf [post]
func ExtractPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	raw, ok := readUploadedFile(w, r)
	if !ok {
		return
	}
	respondWithExtraction(w, r, raw)
}

// ExtractPDFUrlHandler godoc
// @Summary      Extract records from a remote PDF
// @Description  Downloads the document at the given URL and runs the extraction pipeline inline.
// @Tags         Extraction
// @Accept       json
// @Produce      json
// @Param        request  body  api.PDFUrlRequest  true  "Document URL"
// @Success      200  {object}  api.ExtractResponse
// @Failure      400  {object}  api.ErrorResponse  "Download failed"
// @Failure      500  {object}  api.ErrorResponse  "Document cannot be opened"
// @Router       /extract-pdf-url [post]
func ExtractPDFUrlHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	var requestData api.PDFUrlRequest
	if !decodeJSONBody(w, r, &requestData) {
		return
	}
	if requestData.URL == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "url is required")
		return
	}

	raw, err := handlerInstance.downloader.Download(r.Context(), requestData.URL)
	if err != nil {
		logRH.Error("Error processing PDF from URL", "url", requestData.URL, "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithExtraction(w, r, raw)
}

// ExtractPDFAsyncHandler godoc
// @Summary      Queue extraction of an uploaded PDF
// @Description  Accepts a multipart PDF plus webhook_url and request_id form fields, queues a background job and acknowledges immediately. The outcome is POSTed once to the webhook.
// @Tags         Extraction
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData  file    true  "The PDF document"
// @Param        webhook_url  formData  string  true  "Callback URL for the one-shot result delivery"
// @Param        request_id   formData  string  true  "Caller-supplied id echoed in the delivery payload"
// @Success      202  {object}  api.AcceptedResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse  "Storage error"
// @Router       /extract-pdf-async [post]
func ExtractPDFAsyncHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	raw, ok := readUploadedFile(w, r)
	if !ok {
		return
	}
	webhookURL := r.FormValue("webhook_url")
	requestID := r.FormValue("request_id")
	if webhookURL == "" || requestID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "webhook_url and request_id are required")
		return
	}

	//the job outlives the request, so the upload moves to disk first
	targetDir, errString := getTargetDirectory()
	if errString != "" {
		logRH.Error("Couldn't get target directory", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, errString)
		return
	}
	tempFilePath := filepath.Join(targetDir, fmt.Sprintf("%d-%s.pdf", time.Now().UnixNano(), requestID))
	if err := os.WriteFile(tempFilePath, raw, 0600); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, "Storage error")
		return
	}

	logRH.Info("Received async PDF extract request", "requestId", requestID)
	CreateNewJob(newJobData{
		requestId:    requestID,
		traceId:      traceFromContext(r.Context()),
		callbackURL:  webhookURL,
		source:       jobModel.SourceUpload,
		documentPath: tempFilePath,
	})
	writeJsonResponse(w, http.StatusAccepted, adapter.ToAcceptedResponse())
}

// ExtractPDFUrlAsyncHandler godoc
// @Summary      Queue extraction of a remote PDF
// @Description  Accepts url, webhook_url and request_id, queues a background job that downloads and extracts, and acknowledges immediately.
// @Tags         Extraction
// @Accept       json
// @Produce      json
// @Param        request  body  api.AsyncPDFUrlRequest  true  "Document URL plus delivery details"
// @Success      202  {object}  api.AcceptedResponse
// @Failure      400  {object}  api.ErrorResponse
// @Router       /extract-pdf-url-async [post]
func ExtractPDFUrlAsyncHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	var requestData api.AsyncPDFUrlRequest
	if !decodeJSONBody(w, r, &requestData) {
		return
	}
	if requestData.URL == "" || requestData.WebhookURL == "" || requestData.RequestID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "url, webhook_url and request_id are required")
		return
	}

	logRH.Info("Received async PDF URL extract request", "requestId", requestData.RequestID)
	CreateNewJob(newJobData{
		requestId:   requestData.RequestID,
		traceId:     traceFromContext(r.Context()),
		callbackURL: requestData.WebhookURL,
		source:      jobModel.SourceURL,
		documentURL: requestData.URL,
	})
	writeJsonResponse(w, http.StatusAccepted, adapter.ToAcceptedResponse())
}

// ConsultarHandler godoc
// @Summary      Check retirement status for a CPF
// @Description  Navigates the public transparency portal for the CPF and classifies it by retirement date.
// @Tags         Consulta
// @Accept       json
// @Produce      json
// @Param        request  body  api.CPFRequest  true  "CPF, formatted or bare"
// @Success      200  {object}  consulta.Result
// @Failure      400  {object}  api.ErrorResponse  "Invalid CPF format"
// @Failure      500  {object}  api.ErrorResponse  "Browser not initialized"
// @Router       /consultar [post]
func ConsultarHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	var requestData api.CPFRequest
	if !decodeJSONBody(w, r, &requestData) {
		return
	}

	cpfClean := nonDigit.ReplaceAllString(requestData.CPF, "")
	if len(cpfClean) != 11 {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid CPF format")
		return
	}
	if !handlerInstance.consulta.Ready() {
		WriteErrorResponse(w, http.StatusInternalServerError, "Browser not initialized")
		return
	}

	result, err := handlerInstance.consulta.Consultar(r.Context(), cpfClean)
	if err != nil {
		logRH.Error("Error processing CPF lookup", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, result)
}

// ConsultarReceitaHandler godoc
// @Summary      Check CPF registration status at Receita Federal
// @Description  Fills the public Receita Federal form with CPF and birth date and classifies the registration status.
// @Tags         Consulta
// @Accept       json
// @Produce      json
// @Param        request  body  api.ReceitaRequest  true  "CPF and birth date (DD/MM/YYYY)"
// @Success      200  {object}  consulta.ReceitaResult
// @Failure      400  {object}  api.ErrorResponse  "Invalid CPF or date format"
// @Failure      500  {object}  api.ErrorResponse  "Browser not initialized"
// @Router       /consultar-receita [post]
func ConsultarReceitaHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	var requestData api.ReceitaRequest
	if !decodeJSONBody(w, r, &requestData) {
		return
	}

	cpfClean := nonDigit.ReplaceAllString(requestData.CPF, "")
	if len(cpfClean) != 11 {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid CPF format - must have 11 digits")
		return
	}
	if !birthDateFmt.MatchString(requestData.DataNascimento) {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid date format - use DD/MM/YYYY")
		return
	}
	if !handlerInstance.consulta.Ready() {
		WriteErrorResponse(w, http.StatusInternalServerError, "Browser not initialized")
		return
	}

	result, err := handlerInstance.consulta.ConsultarReceita(r.Context(), cpfClean, requestData.DataNascimento)
	if err != nil {
		logRH.Error("Error processing Receita Federal lookup", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, result)
}

// HealthHandler godoc
// @Summary      Liveness probe
// @Tags         Meta
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{
		Status:       "ok",
		BrowserReady: handlerInstance != nil && handlerInstance.consulta.Ready(),
	})
}

// VersionHandler godoc
// @Summary      Service version and feature list
// @Tags         Meta
// @Produce      json
// @Success      200  {object}  api.VersionResponse
// @Router       /version [get]
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.VersionResponse{
		Version:  "1.0",
		Features: []string{"ocr", "text-layer", "async-webhook", "consulta", "receita-federal"},
	})
}

func respondWithExtraction(w http.ResponseWriter, r *http.Request, raw []byte) {
	records, err := handlerInstance.extractor.Extract(r.Context(), raw)
	if err != nil {
		logRH.Error("Error processing PDF", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToExtractResponse(records))
}

func readUploadedFile(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if err := r.ParseMultipartForm(config.MaxDocumentBytes); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "File too large or bad request")
		return nil, false
	}

	fileReader, _, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Could not retrieve file")
		return nil, false
	}
	defer fileReader.Close()

	raw, err := io.ReadAll(io.LimitReader(fileReader, config.MaxDocumentBytes))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Could not read file")
		return nil, false
	}
	return raw, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logRH.Error("Couldn't close the request body reader", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logRH.Warn("Bad request body", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "Bad Request")
		return false
	}
	return true
}

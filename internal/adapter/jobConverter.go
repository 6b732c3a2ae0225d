package adapter

import (
	"github.com/dlemos/cpf-extractor/internal/api"
	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
)

const (
	statusSuccess    = "success"
	statusError      = "error"
	statusBackground = "processing_background"
)

func ToExtractResponse(records []commonModels.Record) api.ExtractResponse {
	data := make([]api.Record, 0, len(records))
	for _, r := range records {
		data = append(data, api.Record{Name: r.Name, CPF: r.CPF})
	}
	return api.ExtractResponse{Status: statusSuccess, Data: data}
}

func ToAcceptedResponse() api.AcceptedResponse {
	return api.AcceptedResponse{Status: statusBackground}
}

func ToErrorResponse(message string) api.ErrorResponse {
	return api.ErrorResponse{Status: statusError, Error: message}
}

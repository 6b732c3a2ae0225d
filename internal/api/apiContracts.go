package api

// Record is the externally visible (name, cpf) pair.
type Record struct {
	Name string `json:"name"`
	CPF  string `json:"cpf"`
}

type ExtractResponse struct {
	Status string   `json:"status" example:"success"`
	Data   []Record `json:"data"`
}

type AcceptedResponse struct {
	Status string `json:"status" example:"processing_background"`
}

type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Error  string `json:"error" example:"failed to download PDF: 404"`
}

type HealthResponse struct {
	Status       string `json:"status" example:"ok"`
	BrowserReady bool   `json:"browser_ready"`
}

type VersionResponse struct {
	Version  string   `json:"version" example:"1.0"`
	Features []string `json:"features"`
}

// requests---------------------

type PDFUrlRequest struct {
	URL string `json:"url" validate:"required"`
}

type AsyncPDFUrlRequest struct {
	URL        string `json:"url" validate:"required"`
	WebhookURL string `json:"webhook_url" validate:"required"`
	RequestID  string `json:"request_id" validate:"required"`
}

type CPFRequest struct {
	CPF string `json:"cpf" validate:"required"`
}

type ReceitaRequest struct {
	CPF            string `json:"cpf" validate:"required"`
	DataNascimento string `json:"data_nascimento" validate:"required"` //DD/MM/YYYY
}

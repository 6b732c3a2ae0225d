// Package delivery posts job outcomes to caller-supplied callbacks.
// Delivery is exactly one attempt: a failed POST is logged and the job
// ends, the caller is expected to poll or time out on its own.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Payload is the single body a callback ever receives for a job. Data
// is typed any so a success payload always carries the data key, even
// as an empty array, while error payloads omit it entirely - a typed
// slice with omitempty would drop the empty array too.
type Payload struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"` //[]commonModels.Record on success, absent on error
	Error     string `json:"error,omitempty"`
}

func SuccessPayload(requestID string, records []commonModels.Record) Payload {
	if records == nil {
		records = []commonModels.Record{}
	}
	return Payload{RequestID: requestID, Status: StatusSuccess, Data: records}
}

func (p Payload) recordCount() int {
	if records, ok := p.Data.([]commonModels.Record); ok {
		return len(records)
	}
	return 0
}

func ErrorPayload(requestID string, err error) Payload {
	return Payload{RequestID: requestID, Status: StatusError, Error: err.Error()}
}

type Deliverer struct {
	client *http.Client
	logger *logger_i.Logger
}

func NewDeliverer(transport http.RoundTripper) *Deliverer {
	return &Deliverer{
		client: &http.Client{
			Timeout:   config.WebhookTimeout,
			Transport: transport,
		},
		logger: logger_i.NewLogger("WebhookDelivery"),
	}
}

// Deliver POSTs the payload to callbackURL once. The returned error is
// for state bookkeeping only - nobody retries on it.
func (d *Deliverer) Deliver(ctx context.Context, callbackURL string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	d.logger.Info("Sending webhook", "url", callbackURL, "status", payload.Status, "records", payload.recordCount())

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: status %d", resp.StatusCode)
	}

	d.logger.Info("Webhook delivered", "url", callbackURL, "httpStatus", resp.StatusCode)
	return nil
}

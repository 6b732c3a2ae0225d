package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type SourceType string

const (
	//a job makes exactly one pass: accepted, extracted, one delivery
	//attempt, terminal. No retries, no resurrection.
	JobStatusPending        JobStatus = "PENDING"
	JobStatusRunning        JobStatus = "RUNNING"
	JobStatusDelivered      JobStatus = "DELIVERED"
	JobStatusDeliveryFailed JobStatus = "DELIVERY_FAILED"

	SourceUpload SourceType = "Upload"
	SourceURL    SourceType = "URL"
)

// Job is one asynchronous extraction request. Id is the caller-supplied
// request id; it only ever surfaces again inside the webhook payload.
type Job struct {
	Id           string     `json:"id"`
	TraceId      string     `json:"trace_id"`
	Source       SourceType `json:"source"`
	DocumentPath string     `json:"document_path,omitempty"` //temp file for uploads
	DocumentURL  string     `json:"document_url,omitempty"`  //remote source
	CallbackURL  string     `json:"callback_url"`
	CreatedTime  time.Time  `json:"created_time"`
	EndTime      time.Time  `json:"end_time,omitempty"`
	Status       JobStatus  `json:"status"`
	Error        JobError   `json:"error,omitempty"`
}

type JobError struct {
	Message string `json:"message"`
}

// JobStore tracks job state transitions inside the process. It is
// operator observability only - no endpoint reads it back.
type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

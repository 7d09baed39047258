package job

import (
	"time"

	uuid "github.com/google/uuid"
)

type Type string

const (
	TypeGenerateRFP Type = "generate_rfp"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result is what a completed generation job exposes to pollers.
type Result struct {
	DownloadLink string `json:"download_link"`
	FileID       string `json:"file_id"`
}

type Job struct {
	ID       uuid.UUID  `json:"id"`
	Type     Type       `json:"type"`
	Payload  []byte     `json:"payload"`
	Status   Status     `json:"status"`
	Progress int        `json:"progress"`
	Message  string     `json:"message,omitempty"`
	Result   *Result    `json:"result,omitempty"`
	Error    string     `json:"error,omitempty"`
	Enqueued time.Time  `json:"enqueued_at"`
	Started  *time.Time `json:"started_at,omitempty"`
	Finished *time.Time `json:"finished_at,omitempty"`
}

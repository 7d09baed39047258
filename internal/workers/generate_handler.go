package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lavrova/rfpdesk/internal/common"
	"github.com/lavrova/rfpdesk/internal/drive"
	"github.com/lavrova/rfpdesk/internal/job"
	"github.com/lavrova/rfpdesk/internal/memq"
	"github.com/lavrova/rfpdesk/internal/pipeline"
	"github.com/lavrova/rfpdesk/internal/repository"
)

// GeneratePayload is the job payload for a backgrounded upload. Data is the
// raw file; json encoding base64s it.
type GeneratePayload struct {
	GenerationID uuid.UUID          `json:"generation_id"`
	Filename     string             `json:"filename"`
	Consent      bool               `json:"consent"`
	Credentials  *drive.Credentials `json:"credentials,omitempty"`
	Data         []byte             `json:"data"`
}

// generationStore is what the handler needs from the repository.
type generationStore interface {
	UpdateGenerationStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkGenerationCompleted(ctx context.Context, id uuid.UUID, driveFileID, driveLink string) error
	MarkGenerationFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type GenerateHandler struct {
	pipeline *pipeline.Pipeline
	repo     generationStore
}

func NewGenerateHandler(p *pipeline.Pipeline, repo generationStore) *GenerateHandler {
	return &GenerateHandler{pipeline: p, repo: repo}
}

func (h *GenerateHandler) HandleGenerateJob(ctx context.Context, j job.Job, report memq.ProgressFunc) (*job.Result, error) {
	if j.Type != job.TypeGenerateRFP {
		return nil, fmt.Errorf("unexpected job type: %s", j.Type)
	}

	var payload GeneratePayload
	if err := json.Unmarshal(j.Payload, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal job payload: %w", err)
	}

	if err := h.repo.UpdateGenerationStatus(ctx, payload.GenerationID, repository.StatusProcessing); err != nil {
		slog.Error("failed to update generation status", "generation_id", payload.GenerationID, "error", err)
	}

	outcome, err := h.pipeline.Run(ctx, pipeline.Request{
		Data:           payload.Data,
		Filename:       payload.Filename,
		Credentials:    payload.Credentials,
		ConsentGranted: payload.Consent,
	}, func(state pipeline.State, pct int) {
		report(pct, stageMessage(state))
	})
	if err != nil {
		h.markFailed(ctx, payload.GenerationID, common.UserMessage(err))
		return nil, err
	}

	// Consent is resolved before enqueueing; hitting the checkpoint here
	// means the template store was cleared mid-flight.
	if outcome.NeedsConsent {
		reason := "consent required: no base template is configured"
		h.markFailed(ctx, payload.GenerationID, reason)
		return nil, fmt.Errorf("%s", reason)
	}

	if err := h.repo.MarkGenerationCompleted(ctx, payload.GenerationID, outcome.Link.FileID, outcome.Link.URL); err != nil {
		slog.Error("failed to record completed generation", "generation_id", payload.GenerationID, "error", err)
	}

	slog.Info("generation job completed",
		"generation_id", payload.GenerationID,
		"filename", payload.Filename,
		"file_id", outcome.Link.FileID)

	return &job.Result{
		DownloadLink: outcome.Link.URL,
		FileID:       outcome.Link.FileID,
	}, nil
}

func (h *GenerateHandler) markFailed(ctx context.Context, id uuid.UUID, reason string) {
	if err := h.repo.MarkGenerationFailed(ctx, id, reason); err != nil {
		slog.Error("failed to record failed generation", "generation_id", id, "error", err)
	}
}

func stageMessage(state pipeline.State) string {
	switch state {
	case pipeline.StateReceived:
		return "received"
	case pipeline.StateValidated:
		return "validated"
	case pipeline.StateExtracted:
		return "content extracted"
	case pipeline.StateStructured:
		return "summary structured"
	case pipeline.StateRendered:
		return "document rendered"
	case pipeline.StateUploaded:
		return "uploaded to drive"
	case pipeline.StateDone:
		return "done"
	default:
		return string(state)
	}
}

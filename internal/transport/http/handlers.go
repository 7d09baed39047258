package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lavrova/rfpdesk/internal/auth"
	"github.com/lavrova/rfpdesk/internal/common"
	"github.com/lavrova/rfpdesk/internal/config"
	"github.com/lavrova/rfpdesk/internal/database"
	"github.com/lavrova/rfpdesk/internal/drive"
	"github.com/lavrova/rfpdesk/internal/extract"
	"github.com/lavrova/rfpdesk/internal/job"
	"github.com/lavrova/rfpdesk/internal/memq"
	"github.com/lavrova/rfpdesk/internal/pipeline"
	"github.com/lavrova/rfpdesk/internal/repository"
	"github.com/lavrova/rfpdesk/internal/sections"
	"github.com/lavrova/rfpdesk/internal/validation"
	"github.com/lavrova/rfpdesk/internal/workers"
)

// credentialsHeader carries the caller's serialized drive credentials.
const credentialsHeader = "X-Drive-Credentials"

// GenerationStore is the slice of the repository the handlers need; the
// pgx-backed repository satisfies it.
type GenerationStore interface {
	CreateGeneration(ctx context.Context, g *repository.Generation) error
	MarkGenerationCompleted(ctx context.Context, id uuid.UUID, driveFileID, driveLink string) error
	MarkGenerationFailed(ctx context.Context, id uuid.UUID, reason string) error
	ListGenerations(ctx context.Context, userID *string, limit int) ([]repository.Generation, error)
}

type Handlers struct {
	Q        memq.JobQueue
	Pipeline *pipeline.Pipeline
	Sections sections.Store
	Drive    drive.Store
	Repo     GenerationStore
	// DB backs the readiness probe; nil skips the check.
	DB     *database.DB
	Config config.Config
}

func (h *Handlers) Routers(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	// static file serving for local storage
	if h.Config.StorageMode == "local" || h.Config.StorageMode == "filesystem" {
		r.Get("/files/*", h.serveFiles)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.Config.AuthSecret, h.Config.AuthIssuer))

		r.Post("/api/upload", h.upload)
		r.Get("/api/upload/status/{job_id}", h.uploadStatus)
		r.Post("/api/upload-base-document", h.uploadBaseDocument)
		r.Get("/api/base-document/structure", h.baseDocumentStructure)
		r.Get("/api/documents", h.listDocuments)
		r.Get("/api/generations", h.listGenerations)
		r.Post("/api/chat", h.chat)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("encode response", "err", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses with the
// user-facing message for each kind.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat),
		errors.Is(err, common.ErrEmptyInput),
		errors.Is(err, common.ErrSizeLimitExceeded):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrAuthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrQuotaOrPermission):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrExtractionFailed),
		errors.Is(err, common.ErrGenerationFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrUploadFailed):
		status = http.StatusBadGateway
	case errors.Is(err, common.ErrTimeout):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   common.UserMessage(err),
	})
}

// readUpload pulls the single multipart file out of the request.
func (h *Handlers) readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(h.Config.MaxUploadBytes + 1<<20); err != nil {
		return nil, "", common.WrapStage(common.ErrSizeLimitExceeded, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", common.WrapStage(common.ErrEmptyInput, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", common.WrapStage(common.ErrInternal, err)
	}
	return data, header.Filename, nil
}

// credentials parses the drive credentials header. A malformed header is
// treated as absent, matching the lenient behavior callers rely on.
func credentials(r *http.Request) *drive.Credentials {
	raw := r.Header.Get(credentialsHeader)
	if raw == "" {
		return nil
	}
	creds, err := drive.ParseCredentials(raw)
	if err != nil {
		slog.Warn("could not parse drive credentials, proceeding without", "err", err)
		return nil
	}
	return creds
}

func queryFlag(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || v == "true"
}

func (h *Handlers) upload(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := validation.ValidateUpload(filename, int64(len(data)), h.Config.MaxUploadBytes); err != nil {
		writeError(w, err)
		return
	}

	consent := queryFlag(r, "consent")
	creds := credentials(r)

	// Resolve the consent checkpoint before any work is queued: first-ever
	// upload with no base template requires an explicit decision.
	needsConsent, err := h.Pipeline.ConsentRequired(r.Context(), consent)
	if err != nil {
		writeError(w, err)
		return
	}
	if needsConsent {
		writeJSON(w, http.StatusOK, map[string]any{
			"requires_consent": true,
			"action_required":  "user_consent",
			"message": "No base document is configured. Upload a base document first, " +
				"or resubmit with consent to use the default template.",
		})
		return
	}

	ft, err := extract.Detect(filename)
	if err != nil {
		writeError(w, err)
		return
	}

	gen := &repository.Generation{
		OriginalFilename: filename,
		SourceKind:       ft.Kind.String(),
		ContentType:      validation.SniffContentType(data),
		FileSize:         int64(len(data)),
	}
	if claims, ok := auth.FromContext(r.Context()); ok {
		gen.UserID = &claims.UserID
	}
	if err := h.Repo.CreateGeneration(r.Context(), gen); err != nil {
		slog.Error("failed to create generation record", "error", err)
		writeError(w, common.ErrInternal)
		return
	}

	// Audio goes through the background queue: transcription latency is
	// unbounded. ?async=1 forces the same path for documents.
	if ft.Kind == extract.KindAudio || queryFlag(r, "async") {
		h.enqueueUpload(w, r, gen.ID, data, filename, consent, creds)
		return
	}

	outcome, err := h.Pipeline.Run(r.Context(), pipeline.Request{
		Data:           data,
		Filename:       filename,
		Credentials:    creds,
		ConsentGranted: consent,
	}, nil)
	if err != nil {
		if dbErr := h.Repo.MarkGenerationFailed(r.Context(), gen.ID, common.UserMessage(err)); dbErr != nil {
			slog.Error("failed to record failed generation", "generation_id", gen.ID, "error", dbErr)
		}
		slog.Error("upload pipeline failed", "filename", filename, "error", err)
		writeError(w, err)
		return
	}
	if outcome.NeedsConsent {
		// Template store emptied between the pre-check and the run.
		writeJSON(w, http.StatusOK, map[string]any{
			"requires_consent": true,
			"action_required":  "user_consent",
		})
		return
	}

	if err := h.Repo.MarkGenerationCompleted(r.Context(), gen.ID, outcome.Link.FileID, outcome.Link.URL); err != nil {
		slog.Error("failed to record completed generation", "generation_id", gen.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "File processed successfully. RFP summary generated and uploaded to the drive.",
		"download_link": outcome.Link.URL,
		"file_id":       outcome.Link.FileID,
	})
}

func (h *Handlers) enqueueUpload(w http.ResponseWriter, r *http.Request, genID uuid.UUID, data []byte, filename string, consent bool, creds *drive.Credentials) {
	payload, err := json.Marshal(workers.GeneratePayload{
		GenerationID: genID,
		Filename:     filename,
		Consent:      consent,
		Credentials:  creds,
		Data:         data,
	})
	if err != nil {
		slog.Error("failed to marshal job payload", "error", err)
		writeError(w, common.ErrInternal)
		return
	}

	j := &job.Job{
		Type:    job.TypeGenerateRFP,
		Payload: payload,
	}
	jobID, err := h.Q.Enqueue(r.Context(), j)
	if err != nil {
		slog.Error("failed to enqueue generation job", "error", err)
		http.Error(w, "enqueue failed", http.StatusServiceUnavailable)
		return
	}

	slog.Info("generation job enqueued", "job_id", jobID, "filename", filename)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"async":  true,
		"job_id": jobID.String(),
	})
}

func (h *Handlers) uploadStatus(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "job_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad job id"})
		return
	}

	j, ok := h.Q.Status(r.Context(), id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "job not found"})
		return
	}

	resp := map[string]any{
		"status":   string(j.Status),
		"progress": j.Progress,
		"message":  j.Message,
	}
	if j.Result != nil {
		resp["result"] = j.Result
	}
	if j.Error != "" {
		resp["error"] = j.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) uploadBaseDocument(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	names, err := h.Pipeline.LearnBase(r.Context(), data, filename)
	if err != nil {
		slog.Error("base document learning failed", "filename", filename, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"sections": names,
	})
}

func (h *Handlers) baseDocumentStructure(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Sections.Get(r.Context())
	if err != nil {
		if errors.Is(err, common.ErrTemplateNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"error":   "no base document uploaded",
			})
			return
		}
		slog.Error("failed to read template record", "error", err)
		writeError(w, common.ErrInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"sections": rec.Sections,
	})
}

func (h *Handlers) listDocuments(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	files, err := h.Drive.ListRecent(r.Context(), days, credentials(r))
	if err != nil {
		slog.Error("failed to list drive documents", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"files":   files,
	})
}

func (h *Handlers) listGenerations(w http.ResponseWriter, r *http.Request) {
	var userID *string
	if claims, ok := auth.FromContext(r.Context()); ok {
		userID = &claims.UserID
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	generations, err := h.Repo.ListGenerations(r.Context(), userID, limit)
	if err != nil {
		slog.Error("failed to list generations", "error", err)
		writeError(w, common.ErrInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"generations": generations,
	})
}

// chat is a thin assistant passthrough with canned guidance.
func (h *Handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": chatResponse(req.Message),
	})
}

func chatResponse(message string) string {
	lower := strings.ToLower(message)
	words := make(map[string]struct{})
	for _, w := range strings.Fields(lower) {
		words[strings.Trim(w, ".,!?")] = struct{}{}
	}
	has := func(w string) bool {
		_, ok := words[w]
		return ok
	}

	switch {
	case has("hello"), has("hi"), has("hey"):
		return "Hello! I'm here to help you with RFP analysis and document generation."
	case has("help"):
		return "I can process PDF, DOCX, TXT, or audio files and generate RFP summaries. Upload a file to get started."
	default:
		return "I'm an assistant specialized in RFP analysis. Upload a file to generate a structured RFP summary document."
	}
}

func (h *Handlers) serveFiles(w http.ResponseWriter, r *http.Request) {
	filePath := strings.TrimPrefix(r.URL.Path, "/files/")
	if filePath == "" {
		http.Error(w, "file path required", http.StatusBadRequest)
		return
	}
	if strings.Contains(filePath, "..") {
		http.Error(w, "invalid file path", http.StatusBadRequest)
		return
	}

	fullPath := filepath.Join(h.Config.LocalStorageDir, filePath)
	http.ServeFile(w, r, fullPath)
}

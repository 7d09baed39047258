// Package pipeline sequences one upload through extraction, structuring,
// rendering, and drive upload.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lavrova/rfpdesk/internal/common"
	"github.com/lavrova/rfpdesk/internal/docx"
	"github.com/lavrova/rfpdesk/internal/drive"
	"github.com/lavrova/rfpdesk/internal/extract"
	"github.com/lavrova/rfpdesk/internal/rfp"
	"github.com/lavrova/rfpdesk/internal/sections"
	"github.com/lavrova/rfpdesk/internal/validation"
)

// State tracks where a request is in the pipeline.
type State string

const (
	StateReceived     State = "received"
	StateValidated    State = "validated"
	StateExtracted    State = "extracted"
	StateNeedsConsent State = "needs_consent"
	StateStructured   State = "structured"
	StateRendered     State = "rendered"
	StateUploaded     State = "uploaded"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Request is one upload to process.
type Request struct {
	Data     []byte
	Filename string
	// Credentials are the caller's drive credentials; nil means service
	// identity, which the backend may reject.
	Credentials *drive.Credentials
	// ConsentGranted bypasses the default-template consent checkpoint.
	ConsentGranted bool
}

// Outcome is the terminal result of a run. Exactly one of NeedsConsent or
// Link is meaningful on success.
type Outcome struct {
	State        State
	NeedsConsent bool
	Link         *drive.Link
	SectionNames []string
	SourceKind   extract.Source
}

// ProgressFunc receives stage transitions for job status reporting.
type ProgressFunc func(state State, pct int)

type Timeouts struct {
	Transcribe time.Duration
	Generate   time.Duration
	Upload     time.Duration
}

type Pipeline struct {
	extractor *extract.Extractor
	store     sections.Store
	builder   *rfp.Builder
	drive     drive.Store

	maxUploadBytes int64
	timeouts       Timeouts
}

func New(extractor *extract.Extractor, store sections.Store, builder *rfp.Builder, driveStore drive.Store, maxUploadBytes int64, timeouts Timeouts) *Pipeline {
	return &Pipeline{
		extractor:      extractor,
		store:          store,
		builder:        builder,
		drive:          driveStore,
		maxUploadBytes: maxUploadBytes,
		timeouts:       timeouts,
	}
}

// Run executes the full pipeline for one upload. Any stage failure aborts
// the rest of the run; nothing is uploaded on failure. The consent
// checkpoint is the one non-error short-circuit.
func (p *Pipeline) Run(ctx context.Context, req Request, report ProgressFunc) (*Outcome, error) {
	if report == nil {
		report = func(State, int) {}
	}
	report(StateReceived, 0)

	if err := validation.ValidateUpload(req.Filename, int64(len(req.Data)), p.maxUploadBytes); err != nil {
		return nil, err
	}
	report(StateValidated, 10)

	extractCtx, cancel := context.WithTimeout(ctx, p.timeouts.Transcribe)
	content, err := p.extractor.Extract(extractCtx, req.Data, req.Filename)
	cancel()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content.Text) == "" {
		return nil, common.WrapStage(common.ErrExtractionFailed,
			errors.New("no extractable content; the file may be scanned or silent"))
	}
	report(StateExtracted, 40)

	names, needsConsent, err := p.resolveTemplate(ctx, req.ConsentGranted)
	if err != nil {
		return nil, err
	}
	if needsConsent {
		slog.Info("consent checkpoint hit", "filename", req.Filename)
		return &Outcome{
			State:        StateNeedsConsent,
			NeedsConsent: true,
			SourceKind:   content.Source,
		}, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, p.timeouts.Generate)
	structured, err := p.builder.Build(genCtx, content.Text, names)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.WrapStage(common.ErrTimeout, err)
		}
		return nil, err
	}
	report(StateStructured, 70)

	rendered, err := docx.Render(structured)
	if err != nil {
		return nil, err
	}
	report(StateRendered, 80)

	uploadCtx, cancel := context.WithTimeout(ctx, p.timeouts.Upload)
	link, err := p.drive.Upload(uploadCtx, drive.Artifact{
		Content:     rendered,
		ContentType: docx.ContentType,
	}, displayName(req.Filename), req.Credentials)
	cancel()
	if err != nil {
		return nil, err
	}
	report(StateUploaded, 95)

	slog.Info("pipeline completed",
		"filename", req.Filename,
		"source", content.Source,
		"sections", len(names),
		"file_id", link.FileID)

	report(StateDone, 100)
	return &Outcome{
		State:        StateDone,
		Link:         link,
		SectionNames: names,
		SourceKind:   content.Source,
	}, nil
}

// resolveTemplate returns the active section names, or signals the consent
// checkpoint when no template exists and consent was never granted. A
// consent bypass on the request is persisted so the checkpoint fires at
// most once.
func (p *Pipeline) resolveTemplate(ctx context.Context, consentOnRequest bool) ([]string, bool, error) {
	rec, err := p.store.Get(ctx)
	if err == nil {
		return rec.Sections, false, nil
	}
	if !errors.Is(err, common.ErrTemplateNotFound) {
		return nil, false, common.WrapStage(common.ErrGenerationFailed, err)
	}

	granted, err := p.store.ConsentGranted(ctx)
	if err != nil {
		return nil, false, common.WrapStage(common.ErrGenerationFailed, err)
	}
	if !granted && !consentOnRequest {
		return nil, true, nil
	}
	if !granted {
		if err := p.store.GrantConsent(ctx); err != nil {
			return nil, false, common.WrapStage(common.ErrGenerationFailed, err)
		}
	}
	return sections.Default(), false, nil
}

// ConsentRequired reports whether a run would stop at the consent
// checkpoint. A bypass on the request is persisted, same as during a run.
func (p *Pipeline) ConsentRequired(ctx context.Context, consentOnRequest bool) (bool, error) {
	_, needsConsent, err := p.resolveTemplate(ctx, consentOnRequest)
	return needsConsent, err
}

// LearnBase extracts a base document and replaces the stored template with
// its detected headings. Audio is not a valid base document.
func (p *Pipeline) LearnBase(ctx context.Context, data []byte, filename string) ([]string, error) {
	if err := validation.ValidateUpload(filename, int64(len(data)), p.maxUploadBytes); err != nil {
		return nil, err
	}
	ft, err := extract.Detect(filename)
	if err != nil {
		return nil, err
	}
	if ft.Kind == extract.KindAudio {
		return nil, common.WrapStage(common.ErrUnsupportedFormat,
			errors.New("base document must be a text document"))
	}

	content, err := p.extractor.Extract(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	names := sections.Learn(content)
	if len(names) == 0 {
		names = sections.Default()
	}

	// CAS replace; one retry absorbs a concurrent overwrite.
	for attempt := 0; ; attempt++ {
		var version int64
		if rec, err := p.store.Get(ctx); err == nil {
			version = rec.Version
		} else if !errors.Is(err, common.ErrTemplateNotFound) {
			return nil, common.WrapStage(common.ErrGenerationFailed, err)
		}

		rec, err := p.store.Replace(ctx, names, version)
		if err == nil {
			slog.Info("base template learned", "filename", filename, "sections", len(rec.Sections), "version", rec.Version)
			return rec.Sections, nil
		}
		if errors.Is(err, common.ErrVersionConflict) && attempt == 0 {
			continue
		}
		return nil, common.WrapStage(common.ErrGenerationFailed, err)
	}
}

func displayName(original string) string {
	stem := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	return fmt.Sprintf("RFP_Summary_%s_%s.docx", stem, uuid.New().String()[:8])
}

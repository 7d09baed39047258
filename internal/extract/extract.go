// Package extract turns uploaded files into plain text. Dispatch happens
// once, on a typed file kind, instead of re-inspecting the filename suffix
// at every layer.
package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/lavrova/rfpdesk/internal/common"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindPDF
	KindDOCX
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "txt"
	case KindPDF:
		return "pdf"
	case KindDOCX:
		return "docx"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// FileType is the tagged result of format detection. AudioFormat is set
// only when Kind == KindAudio.
type FileType struct {
	Kind        Kind
	Ext         string
	AudioFormat string
}

// Source distinguishes where extracted text came from.
type Source string

const (
	SourceDocument Source = "document"
	SourceAudio    Source = "audio"
)

// Content is the immutable result of extraction.
type Content struct {
	Text     string
	Source   Source
	Filename string
	// Headings holds style-derived headings when the source format carries
	// them (DOCX). Empty for other formats.
	Headings []string
}

var audioFormats = map[string]string{
	".wav":  "wav",
	".m4a":  "m4a",
	".mp3":  "mp3",
	".webm": "webm",
}

// Detect maps a filename to its FileType. Unsupported extensions fail here,
// before any parsing or network call.
func Detect(filename string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return FileType{Kind: KindText, Ext: ext}, nil
	case ".pdf":
		return FileType{Kind: KindPDF, Ext: ext}, nil
	case ".docx":
		return FileType{Kind: KindDOCX, Ext: ext}, nil
	}
	if format, ok := audioFormats[ext]; ok {
		return FileType{Kind: KindAudio, Ext: ext, AudioFormat: format}, nil
	}
	return FileType{}, common.ErrUnsupportedFormat
}

// Transcriber converts raw audio bytes to text. The format hint is the
// container format ("wav", "mp3", ...).
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, format string) (string, error)
}

type Extractor struct {
	transcriber Transcriber
}

// New builds an Extractor. transcriber may be nil, in which case audio
// uploads fail with ErrExtractionFailed.
func New(transcriber Transcriber) *Extractor {
	return &Extractor{transcriber: transcriber}
}

func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (*Content, error) {
	if len(data) == 0 {
		return nil, common.ErrEmptyInput
	}

	ft, err := Detect(filename)
	if err != nil {
		return nil, err
	}

	switch ft.Kind {
	case KindText:
		return extractText(data, filename)
	case KindPDF:
		return extractPDF(data, filename)
	case KindDOCX:
		return extractDOCX(data, filename)
	case KindAudio:
		return e.extractAudio(ctx, data, filename, ft.AudioFormat)
	default:
		return nil, common.ErrUnsupportedFormat
	}
}

func (e *Extractor) extractAudio(ctx context.Context, data []byte, filename, format string) (*Content, error) {
	if e.transcriber == nil {
		return nil, common.WrapStage(common.ErrExtractionFailed, errors.New("no transcription backend configured"))
	}
	text, err := e.transcriber.Transcribe(ctx, data, format)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.WrapStage(common.ErrTimeout, err)
		}
		return nil, common.WrapStage(common.ErrExtractionFailed, err)
	}
	return &Content{
		Text:     strings.TrimSpace(text),
		Source:   SourceAudio,
		Filename: filename,
	}, nil
}

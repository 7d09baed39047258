// Package rfp builds the structured RFP summary from extracted text.
package rfp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lavrova/rfpdesk/internal/common"
)

// Section is one named block of the generated document.
type Section struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// Document is the ordered structured summary. Section order always matches
// the template order passed to Build.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// SectionGenerator produces the body of one section from source material.
// Implemented by the OpenAI client; nil means heuristic-only mode.
type SectionGenerator interface {
	GenerateSection(ctx context.Context, section, sourceText string) (string, error)
}

type Builder struct {
	gen SectionGenerator
}

// NewBuilder returns a Builder. gen may be nil to disable AI generation;
// the deterministic heuristic then fills every section and never fails on
// non-empty input.
func NewBuilder(gen SectionGenerator) *Builder {
	return &Builder{gen: gen}
}

// Build produces one body per section name, in the given order.
func (b *Builder) Build(ctx context.Context, text string, sectionNames []string) (*Document, error) {
	if len(sectionNames) == 0 {
		return nil, common.WrapStage(common.ErrGenerationFailed, errors.New("no section names"))
	}

	doc := &Document{
		Title:    "RFP Summary Document",
		Sections: make([]Section, 0, len(sectionNames)),
	}

	paragraphs := splitParagraphs(text)

	for _, name := range sectionNames {
		var body string
		if b.gen != nil {
			generated, err := b.gen.GenerateSection(ctx, name, text)
			if err != nil {
				return nil, common.WrapStage(common.ErrGenerationFailed, err)
			}
			body = generated
		} else {
			body = heuristicBody(name, text, paragraphs)
		}
		doc.Sections = append(doc.Sections, Section{Name: name, Body: body})
	}

	slog.Info("structured document built",
		"sections", len(doc.Sections),
		"mode", map[bool]string{true: "ai", false: "heuristic"}[b.gen != nil])

	return doc, nil
}

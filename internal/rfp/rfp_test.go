package rfp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lavrova/rfpdesk/internal/common"
	"github.com/lavrova/rfpdesk/internal/sections"
)

const sampleRFP = `We are looking for a vendor to replace our aging CRM platform.

The new system must support single sign-on and shall integrate with our
existing billing API. The vendor should provide training for all staff.

The platform architecture must run in the cloud with strong security
controls and database encryption at rest.

Delivery is expected by the end of the third quarter, with a pilot
milestone after phase one.

The total budget is capped at 250000 dollars including all licensing cost.

All handling of customer data must maintain GDPR compliance and pass an
annual audit.`

func TestBuild_DefaultTemplate(t *testing.T) {
	b := NewBuilder(nil)
	names := sections.Default()

	doc, err := b.Build(context.Background(), sampleRFP, names)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if doc.Title != "RFP Summary Document" {
		t.Errorf("unexpected title %q", doc.Title)
	}
	if len(doc.Sections) != len(names) {
		t.Fatalf("expected %d sections, got %d", len(names), len(doc.Sections))
	}
	for i, name := range names {
		if doc.Sections[i].Name != name {
			t.Errorf("section %d: expected %q, got %q", i, name, doc.Sections[i].Name)
		}
		if strings.TrimSpace(doc.Sections[i].Body) == "" {
			t.Errorf("section %q has an empty body", name)
		}
	}
}

func TestBuild_ShortUploadPopulatesEverySection(t *testing.T) {
	b := NewBuilder(nil)
	doc, err := b.Build(context.Background(), "Client needs X by Q3", sections.Default())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	for _, s := range doc.Sections {
		if strings.TrimSpace(s.Body) == "" {
			t.Errorf("section %q is empty", s.Name)
		}
	}
	// The single source sentence lands in Requirements via the "needs"
	// keyword.
	if !strings.Contains(doc.Sections[1].Body, "Client needs X by Q3") {
		t.Errorf("requirements section missed the source sentence: %q", doc.Sections[1].Body)
	}
}

func TestBuild_HeuristicPicksRelevantParagraphs(t *testing.T) {
	b := NewBuilder(nil)
	doc, err := b.Build(context.Background(), sampleRFP, []string{"Budget Considerations"})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !strings.Contains(doc.Sections[0].Body, "250000") {
		t.Errorf("budget section did not pick the budget paragraph: %q", doc.Sections[0].Body)
	}
}

func TestBuild_FallbackWhenNoMatch(t *testing.T) {
	b := NewBuilder(nil)
	doc, err := b.Build(context.Background(), "completely unrelated text about gardening",
		[]string{"Timeline and Milestones"})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !strings.Contains(doc.Sections[0].Body, "to be determined") {
		t.Errorf("expected timeline fallback, got %q", doc.Sections[0].Body)
	}
}

func TestBuild_ExecutiveSummaryMentionsWordCount(t *testing.T) {
	b := NewBuilder(nil)
	text := "alpha beta gamma delta"
	doc, err := b.Build(context.Background(), text, []string{"Executive Summary"})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !strings.Contains(doc.Sections[0].Body, "4 words") {
		t.Errorf("expected word count in summary, got %q", doc.Sections[0].Body)
	}
}

func TestBuild_EmptyTemplate(t *testing.T) {
	b := NewBuilder(nil)
	_, err := b.Build(context.Background(), sampleRFP, nil)
	if !errors.Is(err, common.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	b := NewBuilder(nil)
	names := sections.Default()

	first, err := b.Build(context.Background(), sampleRFP, names)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.Build(context.Background(), sampleRFP, names)
		if err != nil {
			t.Fatalf("Build error: %v", err)
		}
		for j := range first.Sections {
			if first.Sections[j].Body != again.Sections[j].Body {
				t.Fatalf("section %q differs between runs", first.Sections[j].Name)
			}
		}
	}
}

type fakeGenerator struct {
	calls []string
	fail  bool
}

func (f *fakeGenerator) GenerateSection(ctx context.Context, section, sourceText string) (string, error) {
	f.calls = append(f.calls, section)
	if f.fail {
		return "", errors.New("model unavailable")
	}
	return fmt.Sprintf("generated body for %s", section), nil
}

func TestBuild_UsesGenerator(t *testing.T) {
	gen := &fakeGenerator{}
	b := NewBuilder(gen)

	doc, err := b.Build(context.Background(), sampleRFP, []string{"Scope", "Pricing"})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(gen.calls) != 2 || gen.calls[0] != "Scope" || gen.calls[1] != "Pricing" {
		t.Errorf("unexpected generator calls: %v", gen.calls)
	}
	if doc.Sections[1].Body != "generated body for Pricing" {
		t.Errorf("unexpected body %q", doc.Sections[1].Body)
	}
}

func TestBuild_GeneratorFailure(t *testing.T) {
	b := NewBuilder(&fakeGenerator{fail: true})
	_, err := b.Build(context.Background(), sampleRFP, []string{"Scope"})
	if !errors.Is(err, common.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestSelectParagraphs_TieBreakKeepsOrder(t *testing.T) {
	paragraphs := []string{
		"the budget is flexible",
		"irrelevant filler paragraph",
		"final cost discussion",
		"more pricing detail here",
		"payment terms to follow",
	}
	kw := map[string]struct{}{"budget": {}, "cost": {}, "pricing": {}, "payment": {}}

	picked := selectParagraphs(paragraphs, kw)
	if len(picked) != 3 {
		t.Fatalf("expected top 3, got %d", len(picked))
	}
	// All score 1; the first three matching paragraphs win, original order.
	want := []string{"the budget is flexible", "final cost discussion", "more pricing detail here"}
	for i := range want {
		if picked[i] != want[i] {
			t.Errorf("paragraph %d: expected %q, got %q", i, want[i], picked[i])
		}
	}
}

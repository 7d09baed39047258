package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavrova/rfpdesk/internal/common"
	"github.com/lavrova/rfpdesk/internal/drive"
	"github.com/lavrova/rfpdesk/internal/extract"
	"github.com/lavrova/rfpdesk/internal/rfp"
	"github.com/lavrova/rfpdesk/internal/sections"
)

type fakeDrive struct {
	uploads []string
	err     error
}

func (f *fakeDrive) Upload(ctx context.Context, artifact drive.Artifact, displayName string, creds *drive.Credentials) (*drive.Link, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploads = append(f.uploads, displayName)
	return &drive.Link{URL: "http://example.com/" + displayName, FileID: displayName}, nil
}

func (f *fakeDrive) ListRecent(ctx context.Context, sinceDays int, creds *drive.Credentials) ([]drive.FileMeta, error) {
	return nil, nil
}

func testTimeouts() Timeouts {
	return Timeouts{
		Transcribe: 5 * time.Second,
		Generate:   5 * time.Second,
		Upload:     5 * time.Second,
	}
}

func newTestPipeline(store sections.Store, d drive.Store) *Pipeline {
	return New(extract.New(nil), store, rfp.NewBuilder(nil), d, 1<<20, testTimeouts())
}

const docText = "The vendor must deliver a CRM replacement.\n\nThe budget is 50000 dollars."

func TestRun_HappyPath(t *testing.T) {
	store := sections.NewMemoryStore()
	_, err := store.Replace(context.Background(), []string{"Requirements", "Budget Considerations"}, 0)
	require.NoError(t, err)

	d := &fakeDrive{}
	p := newTestPipeline(store, d)

	var states []State
	outcome, err := p.Run(context.Background(), Request{
		Data:     []byte(docText),
		Filename: "rfp.txt",
	}, func(state State, pct int) {
		states = append(states, state)
	})
	require.NoError(t, err)

	assert.False(t, outcome.NeedsConsent)
	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, []string{"Requirements", "Budget Considerations"}, outcome.SectionNames)
	assert.Equal(t, extract.SourceDocument, outcome.SourceKind)
	require.NotNil(t, outcome.Link)
	assert.Contains(t, outcome.Link.URL, "RFP_Summary_rfp_")

	require.Len(t, d.uploads, 1)
	assert.True(t, strings.HasPrefix(d.uploads[0], "RFP_Summary_rfp_"))
	assert.True(t, strings.HasSuffix(d.uploads[0], ".docx"))

	assert.Equal(t, []State{StateReceived, StateValidated, StateExtracted,
		StateStructured, StateRendered, StateUploaded, StateDone}, states)
}

func TestRun_ConsentCheckpointFiresOnce(t *testing.T) {
	ctx := context.Background()
	store := sections.NewMemoryStore()
	d := &fakeDrive{}
	p := newTestPipeline(store, d)

	req := Request{Data: []byte(docText), Filename: "rfp.txt"}

	// No template, no consent: the run stops before generation.
	outcome, err := p.Run(ctx, req, nil)
	require.NoError(t, err)
	assert.True(t, outcome.NeedsConsent)
	assert.Equal(t, StateNeedsConsent, outcome.State)
	assert.Empty(t, d.uploads, "nothing may be uploaded before consent")

	// Consent on the request proceeds with the default template and is
	// remembered.
	req.ConsentGranted = true
	outcome, err = p.Run(ctx, req, nil)
	require.NoError(t, err)
	assert.False(t, outcome.NeedsConsent)
	assert.Equal(t, sections.Default(), outcome.SectionNames)

	// Later runs without the flag pass straight through.
	req.ConsentGranted = false
	outcome, err = p.Run(ctx, req, nil)
	require.NoError(t, err)
	assert.False(t, outcome.NeedsConsent)
}

func TestRun_ValidationFailsBeforeWork(t *testing.T) {
	store := sections.NewMemoryStore()
	d := &fakeDrive{}
	p := newTestPipeline(store, d)

	cases := []struct {
		name     string
		data     []byte
		filename string
		want     error
	}{
		{"empty file", nil, "rfp.txt", common.ErrEmptyInput},
		{"unsupported", []byte("x"), "rfp.odt", common.ErrUnsupportedFormat},
		{"oversized", make([]byte, 2<<20), "rfp.txt", common.ErrSizeLimitExceeded},
	}
	for _, tc := range cases {
		_, err := p.Run(context.Background(), Request{Data: tc.data, Filename: tc.filename}, nil)
		assert.ErrorIs(t, err, tc.want, tc.name)
	}
	assert.Empty(t, d.uploads)
}

func TestRun_WhitespaceOnlyContent(t *testing.T) {
	store := sections.NewMemoryStore()
	d := &fakeDrive{}
	p := newTestPipeline(store, d)

	_, err := p.Run(context.Background(), Request{Data: []byte("   \n\t\n  "), Filename: "rfp.txt"}, nil)
	assert.ErrorIs(t, err, common.ErrExtractionFailed)
	assert.Empty(t, d.uploads)
}

func TestRun_UploadFailurePropagates(t *testing.T) {
	store := sections.NewMemoryStore()
	require.NoError(t, store.GrantConsent(context.Background()))

	d := &fakeDrive{err: common.ErrAuthRequired}
	p := newTestPipeline(store, d)

	_, err := p.Run(context.Background(), Request{Data: []byte(docText), Filename: "rfp.txt"}, nil)
	assert.ErrorIs(t, err, common.ErrAuthRequired)
}

func TestConsentRequired(t *testing.T) {
	ctx := context.Background()
	store := sections.NewMemoryStore()
	p := newTestPipeline(store, &fakeDrive{})

	needs, err := p.ConsentRequired(ctx, false)
	require.NoError(t, err)
	assert.True(t, needs)

	// Passing consent persists it.
	needs, err = p.ConsentRequired(ctx, true)
	require.NoError(t, err)
	assert.False(t, needs)

	needs, err = p.ConsentRequired(ctx, false)
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestLearnBase_ReplacesTemplate(t *testing.T) {
	ctx := context.Background()
	store := sections.NewMemoryStore()
	p := newTestPipeline(store, &fakeDrive{})

	base := "1. Project Scope\nbody text about the work to be done by the vendor.\n" +
		"2. Pricing\nbody text about money and invoicing terms for the engagement.\n" +
		"3. Timeline\nbody text about dates for each of the project phases involved.\n"

	names, err := p.LearnBase(ctx, []byte(base), "base.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"Project Scope", "Pricing", "Timeline"}, names)

	rec, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, names, rec.Sections)
	assert.Equal(t, int64(1), rec.Version)

	// Learning again replaces and bumps the version.
	names, err = p.LearnBase(ctx, []byte("DELIVERABLES\nthe list of things the vendor hands over at the end.\n"), "base2.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"DELIVERABLES"}, names)

	rec, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
}

func TestLearnBase_DrivesSubsequentRuns(t *testing.T) {
	ctx := context.Background()
	store := sections.NewMemoryStore()
	d := &fakeDrive{}
	p := newTestPipeline(store, d)

	base := "1. Scope\nthe work the vendor performs for us under this agreement.\n" +
		"2. Pricing\nhow the commercial offer is structured and invoiced monthly.\n" +
		"3. Timeline\nwhen each of the project phases is expected to complete.\n"
	learned, err := p.LearnBase(ctx, []byte(base), "base.txt")
	require.NoError(t, err)
	require.Len(t, learned, 3)

	outcome, err := p.Run(ctx, Request{Data: []byte(docText), Filename: "rfp.txt"}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.NeedsConsent, "a learned template makes consent moot")
	assert.Equal(t, learned, outcome.SectionNames)
}

func TestLearnBase_NoHeadingsFallsBackToDefault(t *testing.T) {
	store := sections.NewMemoryStore()
	p := newTestPipeline(store, &fakeDrive{})

	names, err := p.LearnBase(context.Background(),
		[]byte("just an unstructured wall of lowercase prose with nothing resembling a title anywhere in it at all."),
		"base.txt")
	require.NoError(t, err)
	assert.Equal(t, sections.Default(), names)
}

func TestLearnBase_RejectsAudio(t *testing.T) {
	store := sections.NewMemoryStore()
	p := newTestPipeline(store, &fakeDrive{})

	_, err := p.LearnBase(context.Background(), []byte("RIFF"), "base.wav")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestDisplayName(t *testing.T) {
	name := displayName("client proposal.pdf")
	assert.True(t, strings.HasPrefix(name, "RFP_Summary_client proposal_"))
	assert.True(t, strings.HasSuffix(name, ".docx"))

	// Unique per call.
	assert.NotEqual(t, name, displayName("client proposal.pdf"))
}

func TestRun_GenerateTimeoutMapsToTimeout(t *testing.T) {
	store := sections.NewMemoryStore()
	require.NoError(t, store.GrantConsent(context.Background()))

	timeouts := testTimeouts()
	timeouts.Generate = time.Nanosecond

	slow := rfp.NewBuilder(slowGenerator{})
	p := New(extract.New(nil), store, slow, &fakeDrive{}, 1<<20, timeouts)

	_, err := p.Run(context.Background(), Request{Data: []byte(docText), Filename: "rfp.txt"}, nil)
	assert.ErrorIs(t, err, common.ErrTimeout)
}

type slowGenerator struct{}

func (slowGenerator) GenerateSection(ctx context.Context, section, sourceText string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Second):
		return "body", nil
	}
}

package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lavrova/rfpdesk/internal/extract"
)

func TestLearn_PrefersStyleHeadings(t *testing.T) {
	content := &extract.Content{
		Text:     "Project Scope\nlots of body text here.\nPricing\nmore body.",
		Headings: []string{"Project Scope", "Pricing", "Timeline"},
	}
	assert.Equal(t, []string{"Project Scope", "Pricing", "Timeline"}, Learn(content))
}

func TestLearn_ScansLines(t *testing.T) {
	content := &extract.Content{
		Text: "1. Project Scope\n" +
			"the vendor will deliver a full crm replacement over two quarters.\n" +
			"DELIVERABLES\n" +
			"a list of everything we expect from the winning bidder, including documentation.\n" +
			"Evaluation Criteria\n" +
			"proposals are scored on cost and fit. submissions close on friday.\n",
	}

	names := Learn(content)
	assert.Equal(t, []string{"Project Scope", "DELIVERABLES", "Evaluation Criteria"}, names)
}

func TestLearn_DedupesCaseInsensitive(t *testing.T) {
	content := &extract.Content{
		Headings: []string{"Scope", "SCOPE", "Pricing", "scope"},
	}
	assert.Equal(t, []string{"Scope", "Pricing"}, Learn(content))
}

func TestLearn_NothingQualifies(t *testing.T) {
	content := &extract.Content{
		Text: "just one very long rambling paragraph about nothing in particular, " +
			"with no structure at all and sentences that end with periods.",
	}
	assert.Empty(t, Learn(content))
}

func TestLooksLikeHeading(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"Project Scope", true},
		{"2.1 Technical Requirements", true},
		{"BUDGET", true},
		{"project timeline and budget", true}, // keyword match
		{"This sentence ends with a period.", false},
		{"lowercase mumbling about nothing relevant whatsoever here", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, looksLikeHeading(tc.line), "line %q", tc.line)
	}
}

func TestStripNumbering(t *testing.T) {
	assert.Equal(t, "Scope", stripNumbering("1. Scope"))
	assert.Equal(t, "Technical Requirements", stripNumbering("2.1 Technical Requirements"))
	assert.Equal(t, "Scope", stripNumbering("3) Scope"))
	assert.Equal(t, "Plain Heading", stripNumbering("Plain Heading"))
}

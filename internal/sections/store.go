// Package sections manages the learned SectionTemplate: the ordered list of
// headings that structures every generated RFP summary.
package sections

import "context"

// Record is the versioned template record. Version supports
// compare-and-swap replacement so concurrent instances never observe a
// template mid-overwrite.
type Record struct {
	Sections []string `json:"sections"`
	Version  int64    `json:"version"`
}

// Store persists the single template record plus the one-time consent flag
// for proceeding without a base document.
type Store interface {
	// Get returns the current record, or common.ErrTemplateNotFound.
	Get(ctx context.Context) (*Record, error)
	// Replace swaps in a new section list. expectVersion must match the
	// stored version (0 when no record exists yet); otherwise
	// common.ErrVersionConflict.
	Replace(ctx context.Context, sections []string, expectVersion int64) (*Record, error)
	ConsentGranted(ctx context.Context) (bool, error)
	GrantConsent(ctx context.Context) error
}

// Default is the fixed template used when no base document was supplied.
func Default() []string {
	return []string{
		"Executive Summary",
		"Requirements",
		"Technical Specifications",
		"Timeline and Milestones",
		"Budget Considerations",
		"Compliance and Standards",
		"Recommended Next Steps",
	}
}

package extract

import (
	"bytes"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/lavrova/rfpdesk/internal/common"
)

// extractPDF walks the pages and joins their text layers. A PDF without a
// text layer (scanned pages) yields empty text, which is not an error here;
// the caller decides how to surface near-empty extraction.
func extractPDF(data []byte, filename string) (*Content, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.WrapStage(common.ErrExtractionFailed, fmt.Errorf("open pdf: %w", err))
	}

	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return nil, common.WrapStage(common.ErrExtractionFailed, fmt.Errorf("page %d: %w", page, err))
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}

	return &Content{
		Text:     strings.TrimSpace(builder.String()),
		Source:   SourceDocument,
		Filename: filename,
	}, nil
}

// Package docx renders a structured RFP document as a minimal OOXML
// word-processing package: one Heading1 plus body paragraphs per section.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/lavrova/rfpdesk/internal/common"
	"github.com/lavrova/rfpdesk/internal/rfp"
)

// ContentType is the MIME type of the generated artifact.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:style w:type="paragraph" w:styleId="Title">
<w:name w:val="Title"/><w:rPr><w:b/><w:sz w:val="48"/></w:rPr>
</w:style>
<w:style w:type="paragraph" w:styleId="Heading1">
<w:name w:val="heading 1"/><w:rPr><w:b/><w:sz w:val="32"/></w:rPr>
</w:style>
</w:styles>`

// Render produces the .docx bytes for a structured document. Structural
// content is deterministic: title, then heading + body paragraphs in
// section order.
func Render(doc *rfp.Document) ([]byte, error) {
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	writeParagraph(&body, doc.Title, "Title", true)
	for _, section := range doc.Sections {
		writeParagraph(&body, section.Name, "Heading1", false)
		for _, line := range strings.Split(section.Body, "\n") {
			line = strings.TrimRight(line, " \t")
			if line == "" {
				continue
			}
			writeParagraph(&body, line, "", false)
		}
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/document.xml", body.String()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, common.WrapStage(common.ErrGenerationFailed, fmt.Errorf("create %s: %w", part.name, err))
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, common.WrapStage(common.ErrGenerationFailed, fmt.Errorf("write %s: %w", part.name, err))
		}
	}
	if err := zw.Close(); err != nil {
		return nil, common.WrapStage(common.ErrGenerationFailed, fmt.Errorf("close archive: %w", err))
	}
	return buf.Bytes(), nil
}

func writeParagraph(b *strings.Builder, text, style string, centered bool) {
	b.WriteString("<w:p>")
	if style != "" || centered {
		b.WriteString("<w:pPr>")
		if style != "" {
			fmt.Fprintf(b, `<w:pStyle w:val="%s"/>`, style)
		}
		if centered {
			b.WriteString(`<w:jc w:val="center"/>`)
		}
		b.WriteString("</w:pPr>")
	}
	b.WriteString(`<w:r><w:t xml:space="preserve">`)
	b.WriteString(escape(text))
	b.WriteString("</w:t></w:r></w:p>")
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

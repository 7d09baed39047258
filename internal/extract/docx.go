package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lavrova/rfpdesk/internal/common"
)

// extractDOCX reads word/document.xml from the OOXML archive and joins
// paragraph text runs with newlines. Paragraphs styled Heading1..6 or Title
// are also recorded in Content.Headings, in document order.
func extractDOCX(data []byte, filename string) (*Content, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.WrapStage(common.ErrExtractionFailed, fmt.Errorf("open docx archive: %w", err))
	}

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, common.WrapStage(common.ErrExtractionFailed, errors.New("word/document.xml not found"))
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, common.WrapStage(common.ErrExtractionFailed, fmt.Errorf("open document.xml: %w", err))
	}
	defer rc.Close()

	paragraphs, headings, err := walkParagraphs(rc)
	if err != nil {
		return nil, common.WrapStage(common.ErrExtractionFailed, err)
	}

	return &Content{
		Text:     strings.TrimSpace(strings.Join(paragraphs, "\n")),
		Source:   SourceDocument,
		Filename: filename,
		Headings: headings,
	}, nil
}

func walkParagraphs(r io.Reader) (paragraphs, headings []string, err error) {
	decoder := xml.NewDecoder(r)

	var current strings.Builder
	var inParagraph bool
	var inText bool
	var style string

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
				style = ""
			case "pStyle":
				if inParagraph {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							style = attr.Value
						}
					}
				}
			case "t":
				inText = inParagraph
			case "br", "cr":
				if inParagraph {
					current.WriteByte('\n')
				}
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if !inParagraph {
					continue
				}
				inParagraph = false
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				paragraphs = append(paragraphs, text)
				if isHeadingStyle(style) {
					headings = append(headings, text)
				}
			}
		}
	}

	return paragraphs, headings, nil
}

// isHeadingStyle reports whether a paragraph style marks a heading:
// "Title", "Subtitle", or "Heading1".."Heading6" (case-insensitive).
func isHeadingStyle(style string) bool {
	lower := strings.ToLower(style)
	if lower == "title" || lower == "subtitle" {
		return true
	}
	if rest, ok := strings.CutPrefix(lower, "heading"); ok {
		return len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6'
	}
	return false
}

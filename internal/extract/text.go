package extract

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func extractText(data []byte, filename string) (*Content, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &Content{
		Text:     strings.TrimSpace(text),
		Source:   SourceDocument,
		Filename: filename,
	}, nil
}

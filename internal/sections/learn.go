package sections

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lavrova/rfpdesk/internal/extract"
)

// maxHeadingLen: lines longer than this never look like titles.
const maxHeadingLen = 80

var numberedPrefix = regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`)

// Heading keywords commonly found in RFP base documents.
var headingKeywords = []string{
	"overview", "summary", "introduction", "background", "requirements",
	"specifications", "timeline", "budget", "deliverables", "scope",
	"objectives", "pricing", "compliance", "evaluation",
}

// Learn derives an ordered section-name list from a base document.
// Style-derived headings (DOCX) win; otherwise lines that look like titles
// are scanned: short, title-cased or all-caps, numbered, or carrying a
// known RFP heading keyword. Returns nil when nothing qualifies.
func Learn(content *extract.Content) []string {
	if len(content.Headings) > 0 {
		return dedupe(content.Headings)
	}

	var found []string
	for _, line := range strings.Split(content.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if looksLikeHeading(line) {
			found = append(found, stripNumbering(line))
		}
	}
	return dedupe(found)
}

func looksLikeHeading(line string) bool {
	if len(line) > maxHeadingLen {
		return false
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, ",") {
		return false
	}
	if numberedPrefix.MatchString(line) {
		return true
	}
	if isAllCaps(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, kw := range headingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return isTitleCase(line)
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// isTitleCase: every word of at least 4 letters starts with an upper-case
// letter. Short connectives ("and", "of") are ignored.
func isTitleCase(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 8 {
		return false
	}
	checked := 0
	for _, w := range words {
		runes := []rune(w)
		if len(runes) < 4 || !unicode.IsLetter(runes[0]) {
			continue
		}
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		checked++
	}
	return checked > 0
}

func stripNumbering(line string) string {
	if loc := numberedPrefix.FindStringIndex(line); loc != nil {
		trimmed := strings.TrimLeft(line, "0123456789.) \t")
		if trimmed != "" {
			return trimmed
		}
	}
	return line
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

package rfp

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// topParagraphs caps how many source paragraphs feed one section.
	topParagraphs = 3
	// minOverlap is the minimum keyword overlap for a paragraph to
	// qualify. Below it the section gets its fallback body, never an
	// empty string.
	minOverlap = 1
)

// Curated keyword sets for the default sections, carried over from the
// keyword lists the heuristic has always used for these topics.
var sectionKeywords = map[string][]string{
	"requirements": {
		"must", "required", "shall", "should", "need", "needs", "requirement",
	},
	"technical specifications": {
		"api", "database", "server", "cloud", "security", "integration",
		"platform", "architecture", "infrastructure",
	},
	"timeline and milestones": {
		"deadline", "timeline", "schedule", "milestone", "delivery",
		"due", "phase", "quarter",
	},
	"budget considerations": {
		"budget", "cost", "price", "pricing", "funding", "financial", "payment",
	},
	"compliance and standards": {
		"compliance", "standard", "standards", "regulation", "gdpr",
		"hipaa", "audit", "certification",
	},
}

var sectionFallbacks = map[string]string{
	"executive summary": "", // synthesized below
	"timeline and milestones": "Timeline information to be determined " +
		"based on project requirements.",
	"budget considerations": "Budget information to be discussed during " +
		"proposal evaluation.",
	"compliance and standards": "All proposals must comply with " +
		"industry-standard security practices, applicable data protection " +
		"regulations, and accessibility standards. Documentation and code " +
		"quality standards must be maintained throughout the project lifecycle.",
	"recommended next steps": "1. Review and validate all requirements with stakeholders\n" +
		"2. Prepare detailed technical proposal\n" +
		"3. Identify resource requirements and team composition\n" +
		"4. Develop project timeline and milestones\n" +
		"5. Prepare cost estimate and budget breakdown\n" +
		"6. Submit proposal by specified deadline",
}

// heuristicBody fills one section without AI: paragraphs are scored by
// keyword overlap, ties broken by original order, top scorers concatenated.
func heuristicBody(name, fullText string, paragraphs []string) string {
	lower := strings.ToLower(name)

	if lower == "executive summary" {
		return summaryText(fullText)
	}

	keywords := keywordsFor(lower)
	picked := selectParagraphs(paragraphs, keywords)
	if len(picked) > 0 {
		return strings.Join(picked, "\n\n")
	}

	if fb, ok := sectionFallbacks[lower]; ok && fb != "" {
		return fb
	}
	return fmt.Sprintf("No source content was identified for %q. "+
		"To be completed during proposal preparation.", name)
}

// keywordsFor returns the curated set for known sections, plus the words of
// the section name itself so learned templates work the same way.
func keywordsFor(lowerName string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, kw := range sectionKeywords[lowerName] {
		set[kw] = struct{}{}
	}
	for _, w := range strings.Fields(lowerName) {
		w = strings.Trim(w, ".,:;!?")
		if len(w) > 3 {
			set[w] = struct{}{}
		}
	}
	return set
}

type scored struct {
	index int
	score int
}

func selectParagraphs(paragraphs []string, keywords map[string]struct{}) []string {
	if len(keywords) == 0 {
		return nil
	}

	var candidates []scored
	for i, p := range paragraphs {
		score := overlap(p, keywords)
		if score >= minOverlap {
			candidates = append(candidates, scored{index: i, score: score})
		}
	}

	// Stable: equal scores keep original document order.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > topParagraphs {
		candidates = candidates[:topParagraphs]
	}
	// Re-emit in original order so the section reads like the source.
	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].index < candidates[b].index
	})

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, paragraphs[c.index])
	}
	return out
}

func overlap(paragraph string, keywords map[string]struct{}) int {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(paragraph)) {
		words[strings.Trim(w, ".,:;!?()\"'")] = struct{}{}
	}
	n := 0
	for kw := range keywords {
		if _, ok := words[kw]; ok {
			n++
		}
	}
	return n
}

// splitParagraphs breaks text on blank lines; a text without blank lines is
// split per line so short uploads still yield scorable units.
func splitParagraphs(text string) []string {
	var blocks []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	if len(blocks) <= 1 {
		blocks = blocks[:0]
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				blocks = append(blocks, line)
			}
		}
	}
	return blocks
}

func summaryText(text string) string {
	wordCount := len(strings.Fields(text))
	return fmt.Sprintf("This document provides a structured summary of the "+
		"Request for Proposal (RFP) requirements based on the uploaded "+
		"content. The source material contains approximately %d words that "+
		"were analyzed to extract key project requirements, technical "+
		"specifications, and compliance standards. The following sections "+
		"provide a structured breakdown to assist in preparing a proposal "+
		"response.", wordCount)
}

package edgar

import (
	"regexp"
	"strings"
)

var (
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
	blankRe  = regexp.MustCompile(`\n{2,}`)
)

// stripHTML reduces a filing document to plain text.
func stripHTML(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.NewReplacer(
		"&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">",
		"&#8217;", "'", "&#8220;", `"`, "&#8221;", `"`, "&quot;", `"`,
	).Replace(text)
	text = spaceRe.ReplaceAllString(text, " ")
	text = blankRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// Section heading patterns. Filings vary in punctuation and spacing, so the
// patterns are loose and the shortest non-trivial extraction wins.
var (
	item1Re  = regexp.MustCompile(`(?is)item\s+1\s*[.:\-]?\s*business\b`)
	item1ARe = regexp.MustCompile(`(?is)item\s+1a\s*[.:\-]?\s*risk\s+factors\b`)
	item2Re  = regexp.MustCompile(`(?is)item\s+2\s*[.:\-]?\s*management['\x60s]*\s+discussion`)
	nextItem = regexp.MustCompile(`(?is)\bitem\s+\d+[a-z]?\s*[.:\-]`)

	s1BusinessRe = regexp.MustCompile(`(?is)\bbusiness\s*\n`)
	s1RisksRe    = regexp.MustCompile(`(?is)\brisk\s+factors\s*\n`)
)

// extractSections pulls the narrative and risk sections appropriate for the
// form type. Returns ("", "") when the document yields nothing usable.
func extractSections(text, form string) (description, risks string) {
	switch form {
	case "10-K":
		description = sectionAfter(text, item1Re)
		risks = sectionAfter(text, item1ARe)
	case "10-Q":
		// MD&A is the richest narrative in a 10-Q.
		description = sectionAfter(text, item2Re)
		if description == "" {
			description = sectionAfter(text, item1Re)
		}
		risks = sectionAfter(text, item1ARe)
	case "S-1":
		description = sectionAfter(text, s1BusinessRe)
		risks = sectionAfter(text, s1RisksRe)
	}
	return description, risks
}

// sectionAfter returns the text between the last occurrence of the heading
// and the next item heading. Using the last occurrence skips table-of-contents
// entries, which appear before the section bodies. Sections shorter than 100
// characters are treated as misses.
func sectionAfter(text string, heading *regexp.Regexp) string {
	locs := heading.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return ""
	}
	start := locs[len(locs)-1][1]
	rest := text[start:]

	end := len(rest)
	if loc := nextItem.FindStringIndex(rest); loc != nil {
		end = loc[0]
	}

	section := strings.TrimSpace(rest[:end])
	if len(section) <= 100 {
		return ""
	}
	return section
}

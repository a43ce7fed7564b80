package assist

import (
	"regexp"
	"strings"
)

// fenceRE matches markdown code-fence markers, language-tagged or not.
var fenceRE = regexp.MustCompile("(?i)```[a-z]*\n?|\n?```")

// leadIns are conversational prefixes the model sometimes emits around a
// statement ("Now, run the query...", "Please execute...").
var leadIns = []string{"now", "run", "please", "execute"}

// SanitizeSQL reduces a raw model response to a best-effort executable
// statement: code fences are stripped, a single pair of wrapping double
// quotes is removed, conversational lead-in lines are dropped, and wrapping
// quotes exposed by that removal are stripped again.
//
// SanitizeSQL never fails; fully-empty input yields an empty string, which
// callers must treat as a generation failure rather than execute.
func SanitizeSQL(raw string) string {
	cleaned := strings.TrimSpace(fenceRE.ReplaceAllString(raw, ""))
	cleaned = stripWrappingQuotes(cleaned)

	lines := strings.Split(cleaned, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if lower == "" || hasLeadIn(lower) {
			continue
		}
		kept = append(kept, line)
	}
	cleaned = strings.TrimSpace(strings.Join(kept, "\n"))

	return stripWrappingQuotes(cleaned)
}

// stripWrappingQuotes removes one pair of double quotes wrapping the whole
// string.
func stripWrappingQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func hasLeadIn(lower string) bool {
	for _, prefix := range leadIns {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

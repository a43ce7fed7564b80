package assist

import (
	"regexp"
	"strings"
)

// Classifier routes incoming queries before any model call is made.
// It is intentionally a crude pattern layer kept behind an interface, so a
// model-based classifier can replace it without touching the orchestrator.
type Classifier interface {
	// Conversational reports whether the query is small talk that should
	// bypass SQL generation entirely.
	Conversational(query string) bool

	// FollowUp reports whether the query likely depends on earlier turns
	// and needs rewriting into a standalone question.
	FollowUp(query string) bool
}

var conversationalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(hi|hello|hey|greetings)`),
	regexp.MustCompile(`(?i)^(how are you|what's up|sup)`),
	regexp.MustCompile(`(?i)^(thanks|thank you|thx)`),
	regexp.MustCompile(`(?i)^(bye|goodbye|see you)`),
}

var followUpPatterns = []*regexp.Regexp{
	// Leading discourse connectives.
	regexp.MustCompile(`(?i)^(what about|how about|and\b|also\b|more\b)`),
	// Bare interrogatives.
	regexp.MustCompile(`(?i)^(who|when|where|why|how)\s`),
	// Anaphoric references anywhere in the text.
	regexp.MustCompile(`(?i)\b(them|those|that|it|this)\b`),
}

// PatternClassifier classifies with anchored regular expressions only.
// Both directions accept false positives: a misrouted greeting still gets a
// sensible answer, and a needless rewrite passes an already-complete
// question through unchanged.
type PatternClassifier struct{}

func (PatternClassifier) Conversational(query string) bool {
	return matchAny(conversationalPatterns, strings.TrimSpace(query))
}

func (PatternClassifier) FollowUp(query string) bool {
	return matchAny(followUpPatterns, strings.TrimSpace(query))
}

func matchAny(patterns []*regexp.Regexp, query string) bool {
	for _, p := range patterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

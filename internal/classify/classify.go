// Package classify maps a free-text document request to a
// (document type, subject) pair.
//
// Classification is table-driven: an ordered list of document types,
// each with its surface patterns (Korean and English synonyms and
// abbreviations). The first type with a matching pattern wins, so more
// specific types must be listed before general ones — table order is
// the tie-break, not pattern length.
package classify

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrNoMatch reports that no pattern in the table matched the request.
// The caller should ask the user to name the document type explicitly.
var ErrNoMatch = errors.New("classify: no document type pattern matched")

// DocumentType identifies one kind of generated document.
type DocumentType string

const (
	TypeImpactAnalysis         DocumentType = "IMPACT_ANALYSIS"
	TypeTableSpecification     DocumentType = "TABLE_SPECIFICATION"
	TypeInterfaceSpecification DocumentType = "INTERFACE_SPECIFICATION"
	TypeProgramSpecification   DocumentType = "PROGRAM_SPECIFICATION"
	TypeRequirementsDefinition DocumentType = "REQUIREMENTS_DEFINITION"
)

// Rule binds a document type to its surface patterns. NeedsFindings
// marks types that cannot be finished without caller-supplied codebase
// observations and therefore go through the two-phase workflow.
type Rule struct {
	Type          DocumentType
	Label         string
	Patterns      []string
	NeedsFindings bool
}

// DefaultTable returns the built-in classification table. Order is the
// precedence contract: "테이블 명세서" must match before a bare
// "명세서" fallback ever could.
func DefaultTable() []Rule {
	return []Rule{
		{
			Type:          TypeImpactAnalysis,
			Label:         "영향도 분석서",
			NeedsFindings: true,
			Patterns: []string{
				"영향도 분석서", "영향도분석서", "영향도 분석", "영향 분석", "영향분석",
				"impact analysis", "impact report", "임팩트 분석",
			},
		},
		{
			Type:  TypeTableSpecification,
			Label: "테이블 명세서",
			Patterns: []string{
				"테이블 명세서", "테이블명세서", "테이블 정의서", "테이블 스펙",
				"table specification", "table spec", "테이블 설계서",
			},
		},
		{
			Type:  TypeInterfaceSpecification,
			Label: "인터페이스 명세서",
			Patterns: []string{
				"인터페이스 명세서", "인터페이스 정의서", "인터페이스 스펙",
				"interface specification", "interface spec", "api 명세서", "api spec",
			},
		},
		{
			Type:          TypeProgramSpecification,
			Label:         "프로그램 명세서",
			NeedsFindings: true,
			Patterns: []string{
				"프로그램 명세서", "프로그램 정의서", "프로그램 스펙",
				"program specification", "program spec",
			},
		},
		{
			Type:  TypeRequirementsDefinition,
			Label: "요구사항 정의서",
			Patterns: []string{
				"요구사항 정의서", "요구사항정의서", "요구사항 명세서",
				"requirements definition", "requirements spec", "요건 정의서",
			},
		},
	}
}

// RuleFor returns the table rule for a document type.
func RuleFor(table []Rule, dt DocumentType) (Rule, bool) {
	for _, r := range table {
		if r.Type == dt {
			return r, true
		}
	}
	return Rule{}, false
}

// Request is the classified form of a raw document request.
type Request struct {
	RawText string
	Type    DocumentType
	Subject string
}

// A subject shorter than this (in runes) after stripping is considered
// degenerate; the full raw text is used instead.
const minSubjectRunes = 2

// Classify resolves rawText against table. The matched pattern is
// stripped from the text and surrounding particles are trimmed to
// produce the subject.
func Classify(table []Rule, rawText string) (Request, error) {
	normalized := strings.ToLower(strings.TrimSpace(rawText))
	if normalized == "" {
		return Request{}, ErrNoMatch
	}

	for _, rule := range table {
		for _, pattern := range rule.Patterns {
			if strings.Contains(normalized, strings.ToLower(pattern)) {
				return Request{
					RawText: rawText,
					Type:    rule.Type,
					Subject: extractSubject(rawText, pattern),
				}, nil
			}
		}
	}
	return Request{}, ErrNoMatch
}

// extractSubject removes the matched pattern from the raw text and
// trims the connective particles left at the edges.
func extractSubject(rawText, pattern string) string {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(pattern))
	subject := re.ReplaceAllString(rawText, " ")
	subject = trimParticles(subject)

	if utf8.RuneCountInString(subject) < minSubjectRunes {
		return strings.TrimSpace(rawText)
	}
	return subject
}

// leadingPhrases are request verbs that precede the subject in
// English-style requests.
var leadingPhrases = []string{
	"please create", "please write", "please generate",
	"create an", "create a", "create",
	"write an", "write a", "write",
	"generate an", "generate a", "generate",
	"make an", "make a", "make",
	"draft",
	"for the", "for", "on the", "on",
	"about", "regarding", "of the", "of",
	"the", "an", "a",
}

// trailingPhrases are request verbs and connective particles that
// follow the subject in Korean-style requests, longest first.
var trailingPhrases = []string{
	"만들어 주세요", "작성해 주세요", "생성해 주세요",
	"만들어줘", "작성해줘", "생성해줘", "뽑아줘", "해줘",
	"부탁해", "주세요", "좀",
	"에 대한", "에 관한", "에 대해",
	"for the", "for a", "for",
	"of the", "of",
	"의", "을", "를", "용",
}

const edgeCutset = " \t\n\r.,!?~:;·-()[]{}\"'"

// trimParticles strips request verbs and connective particles from
// both ends until the text is stable.
func trimParticles(s string) string {
	for {
		before := s
		s = strings.Trim(s, edgeCutset)

		lower := strings.ToLower(s)
		for _, p := range leadingPhrases {
			if strings.HasPrefix(lower, p+" ") {
				s = s[len(p)+1:]
				lower = strings.ToLower(s)
			}
		}
		for _, p := range trailingPhrases {
			if strings.HasSuffix(lower, p) {
				// A bare particle like "의" may be glued to the last
				// word; phrases with spaces must stand alone.
				s = strings.TrimSpace(s[:len(s)-len(p)])
				lower = strings.ToLower(s)
			}
		}

		if s == before {
			return s
		}
	}
}

// Package assemble merges a backend template, merged authoring
// guidelines, and caller-supplied codebase findings into the final
// document text.
//
// Placeholders use {{name}}. A placeholder with no supplied value is
// replaced with a visible stand-in rather than silently deleted, so
// the caller can see exactly what is missing. Guideline text is
// appended as a delimited section — never interleaved into the
// template body — so template and directive provenance stay apart.
package assemble

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/docforge/docforge/internal/backend"
	"github.com/docforge/docforge/internal/guidelines"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Assemble produces the document text. findings may be nil for
// single-shot document types that need no codebase observations.
func Assemble(tpl *backend.Template, combined guidelines.CombinedInstruction, findings map[string]any) string {
	used := make(map[string]bool, len(findings))

	body := placeholderRe.ReplaceAllStringFunc(tpl.Text, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := findings[name]; ok {
			used[name] = true
			return renderValue(v, 0)
		}
		if hint := tpl.Variables[name]; hint != "" {
			return fmt.Sprintf("[미입력: %s — %s]", name, hint)
		}
		return fmt.Sprintf("[미입력: %s]", name)
	})

	var out strings.Builder
	out.WriteString(strings.TrimRight(body, "\n"))
	out.WriteByte('\n')

	// Findings the template had no placeholder for still belong in the
	// document: they go into their own analysis-results section.
	if extra := unusedFindings(findings, used); len(extra) > 0 {
		out.WriteString("\n## 코드베이스 분석 결과\n\n")
		for _, name := range extra {
			out.WriteString("### ")
			out.WriteString(name)
			out.WriteString("\n\n")
			out.WriteString(renderValue(findings[name], 0))
			out.WriteString("\n\n")
		}
	}

	if combined.Count > 0 {
		out.WriteString("\n---\n\n## 작성 지침\n\n")
		if combined.Role != "" {
			out.WriteString("**Role:**\n")
			out.WriteString(combined.Role)
			out.WriteString("\n\n")
		}
		if combined.Objective != "" {
			out.WriteString("**Objective:**\n")
			out.WriteString(combined.Objective)
			out.WriteString("\n\n")
		}
		fmt.Fprintf(&out, "_적용된 지침 %d건 (우선순위 합계 %d)_\n", combined.Count, combined.TotalPriority)
	}

	return out.String()
}

// unusedFindings returns the names of findings no placeholder
// consumed, sorted for stable output.
func unusedFindings(findings map[string]any, used map[string]bool) []string {
	var extra []string
	for name := range findings {
		if !used[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return extra
}

// renderValue renders one finding: scalars verbatim, lists as numbered
// lines, nested objects as an indented block.
func renderValue(v any, depth int) string {
	indent := strings.Repeat("  ", depth)

	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		lines := make([]string, 0, len(t))
		for i, item := range t {
			rendered := renderValue(item, depth+1)
			if isBlock(item) {
				lines = append(lines, fmt.Sprintf("%s%d.\n%s", indent, i+1, rendered))
			} else {
				lines = append(lines, fmt.Sprintf("%s%d. %s", indent, i+1, rendered))
			}
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			val := t[k]
			if isBlock(val) {
				lines = append(lines, fmt.Sprintf("%s%s:\n%s", indent, k, renderValue(val, depth+1)))
			} else {
				lines = append(lines, fmt.Sprintf("%s%s: %s", indent, k, renderValue(val, depth)))
			}
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// isBlock reports whether a value renders as multiple lines.
func isBlock(v any) bool {
	switch t := v.(type) {
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return false
	}
}

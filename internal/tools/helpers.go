// Package tools implements the MCP tool handlers — the dispatch
// boundary of the server.
//
// Each tool is a struct that receives its collaborators at
// construction and exposes Definition/Handle for registration. Every
// failure is converted into a structured tool result with a
// human-readable cause and a concrete next step; a handler never lets
// an error escape as a transport-level fault.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docforge/docforge/internal/backend"
	"github.com/docforge/docforge/internal/classify"
	"github.com/docforge/docforge/internal/sites"
	"github.com/docforge/docforge/internal/tracker"
	"github.com/docforge/docforge/internal/workflow"
)

// documentBackend is the slice of the backend client the document
// tools depend on.
type documentBackend interface {
	GuideTemplate(ctx context.Context, documentType, siteID string) (*backend.Template, error)
	ProjectInfo(ctx context.Context, subject, siteID string) (string, error)
	TableSchema(ctx context.Context, tableName, siteID string) ([]backend.Column, error)
	SearchDocuments(ctx context.Context, query, siteID string) ([]backend.DocumentHit, error)
}

// IssueReader pulls ticket text from the issue tracker. Exported so
// the composition root can pass a true nil when no tracker is
// configured.
type IssueReader interface {
	Issue(ctx context.Context, key string) (*tracker.Issue, error)
}

// SchemaInspector is the optional external-database fallback for
// table specifications.
type SchemaInspector interface {
	TableColumns(ctx context.Context, table string) ([]backend.Column, error)
}

// failureMessage renders an error from the lower layers as an
// actionable message for the caller. It covers the whole error
// taxonomy; anything unrecognized gets a generic internal-error text.
func failureMessage(err error) string {
	var nf *sites.NotFoundError
	if errors.As(err, &nf) {
		return renderSiteNotFound(nf)
	}

	var ue *backend.UpstreamError
	if errors.As(err, &ue) {
		return fmt.Sprintf(
			"백엔드 호출에 실패했습니다: %v\n\n"+
				"잠시 후 같은 요청을 다시 시도해 주세요. 실패한 응답은 캐시되지 않으므로 재시도 시 새로 조회합니다.",
			ue,
		)
	}

	if errors.Is(err, backend.ErrNotFound) {
		return "요청한 문서 유형에 등록된 템플릿이 없습니다. " +
			"백엔드 관리 화면에서 해당 사이트에 템플릿을 등록한 뒤 다시 시도해 주세요."
	}

	if errors.Is(err, workflow.ErrExpired) {
		return "" // callers render this with the TTL attached
	}

	return fmt.Sprintf("내부 오류가 발생했습니다: %v", err)
}

// renderSiteNotFound builds the SiteNotFound message, listing the
// closest-matching site names when any cleared the threshold.
func renderSiteNotFound(nf *sites.NotFoundError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "사이트 %q를 찾을 수 없습니다.\n", nf.Token)

	if len(nf.Suggestions) > 0 {
		b.WriteString("\n혹시 이 사이트를 찾으셨나요?\n")
		for _, s := range nf.Suggestions {
			fmt.Fprintf(&b, "- %s (id: %s, %s)\n", s.Name, s.ID, s.Company)
		}
		b.WriteString("\n정확한 이름이나 id로 다시 요청해 주세요.")
	} else {
		b.WriteString("\nlist_sites 도구로 사용 가능한 사이트 목록을 확인한 뒤 다시 요청해 주세요.")
	}
	return b.String()
}

// renderClassificationHelp lists the document types the classifier
// knows, for the clarification error when nothing matched.
func renderClassificationHelp(table []classify.Rule) string {
	var b strings.Builder
	b.WriteString("요청에서 문서 유형을 식별하지 못했습니다. 아래 유형 중 하나를 요청에 포함해 주세요.\n\n")
	for _, rule := range table {
		fmt.Fprintf(&b, "- **%s** (%s) — 예: %q\n", rule.Label, rule.Type, rule.Patterns[0])
	}
	b.WriteString("\n예시: \"사용자 관리 시스템의 테이블 명세서\"")
	return b.String()
}

// renderSiteList formats the directory snapshot as a markdown table.
func renderSiteList(all []backend.Site) string {
	if len(all) == 0 {
		return "등록된 사이트가 없습니다. 백엔드 관리 화면에서 사이트를 먼저 생성해 주세요."
	}

	var b strings.Builder
	b.WriteString("# 사이트 목록\n\n")
	b.WriteString("| ID | 이름 | 회사 |\n|----|------|------|\n")
	for _, s := range all {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", s.ID, s.Name, s.Company)
	}
	return b.String()
}

// columnsToFindings converts a column list into the generic findings
// shape the assembler renders.
func columnsToFindings(cols []backend.Column) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		entry := map[string]any{
			"name":     c.Name,
			"type":     c.Type,
			"nullable": c.Nullable,
		}
		if c.Comment != "" {
			entry["comment"] = c.Comment
		}
		out[i] = entry
	}
	return out
}

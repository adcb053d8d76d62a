package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/docforge/docforge/internal/assemble"
	"github.com/docforge/docforge/internal/backend"
	"github.com/docforge/docforge/internal/classify"
	"github.com/docforge/docforge/internal/extdb"
	"github.com/docforge/docforge/internal/guidelines"
	"github.com/docforge/docforge/internal/sites"
	"github.com/docforge/docforge/internal/workflow"
)

// CreateDocumentTool handles the create_document MCP tool: it
// classifies the request, resolves the site, fetches template and
// guidelines, and either returns a finished document or opens an
// interactive workflow session that asks the caller for codebase
// findings.
type CreateDocumentTool struct {
	table      []classify.Rule
	directory  *sites.Directory
	backend    documentBackend
	guidelines *guidelines.Cache
	sessions   *workflow.Store
	tracker    IssueReader     // nil when no tracker is configured
	inspector  SchemaInspector // nil when no external DB is configured

	defaultSite string
	logger      *zap.Logger
}

// NewCreateDocumentTool wires the document creation pipeline. tracker
// and inspector may be nil.
func NewCreateDocumentTool(
	table []classify.Rule,
	directory *sites.Directory,
	bc documentBackend,
	gc *guidelines.Cache,
	sessions *workflow.Store,
	tr IssueReader,
	inspector SchemaInspector,
	defaultSite string,
	logger *zap.Logger,
) *CreateDocumentTool {
	return &CreateDocumentTool{
		table:       table,
		directory:   directory,
		backend:     bc,
		guidelines:  gc,
		sessions:    sessions,
		tracker:     tr,
		inspector:   inspector,
		defaultSite: defaultSite,
		logger:      logger,
	}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("create_document",
		mcp.WithDescription(
			"Generate a technical document (영향도 분석서, 테이블 명세서, 인터페이스 명세서 등) "+
				"from a natural-language request. Document types that need codebase analysis "+
				"return a workflow session instead of a finished document: explore the codebase "+
				"as instructed, then call continue_workflow with your findings.",
		),
		mcp.WithString("documentRequest",
			mcp.Required(),
			mcp.Description("The request in natural language, naming the document type and subject. "+
				"Example: '사용자 관리 시스템의 테이블 명세서' or 'impact analysis for the payment gateway'"),
		),
		mcp.WithString("siteName",
			mcp.Description("Site id or name the document belongs to. Falls back to the configured default site."),
		),
		mcp.WithString("issueKey",
			mcp.Description("Optional issue-tracker key (e.g. PROJ-42). The ticket's summary and "+
				"description are pulled in as project context."),
		),
		mcp.WithString("tableName",
			mcp.Description("For 테이블 명세서 only: the physical table name, used to look up column "+
				"schema from the analysis engine or the fallback database."),
		),
	)
}

// Handle processes the create_document tool call. All failures come
// back as structured error results — never as protocol faults.
func (t *CreateDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawText := strings.TrimSpace(req.GetString("documentRequest", ""))
	if rawText == "" {
		return mcp.NewToolResultError("'documentRequest' is required — describe the document you need"), nil
	}

	request, err := classify.Classify(t.table, rawText)
	if err != nil {
		return mcp.NewToolResultError(renderClassificationHelp(t.table)), nil
	}
	rule, _ := classify.RuleFor(t.table, request.Type)

	siteToken := strings.TrimSpace(req.GetString("siteName", ""))
	if siteToken == "" {
		siteToken = t.defaultSite
	}
	if siteToken == "" {
		all, listErr := t.directory.All(ctx)
		if listErr != nil {
			return mcp.NewToolResultError(failureMessage(listErr)), nil
		}
		return mcp.NewToolResultError(
			"사이트가 지정되지 않았고 기본 사이트도 설정되어 있지 않습니다. "+
				"siteName 인자로 아래 중 하나를 지정해 주세요.\n\n"+renderSiteList(all),
		), nil
	}

	site, err := t.directory.Resolve(ctx, siteToken)
	if err != nil {
		return mcp.NewToolResultError(failureMessage(err)), nil
	}

	tpl, err := t.backend.GuideTemplate(ctx, string(request.Type), site.ID)
	if err != nil {
		return mcp.NewToolResultError(failureMessage(err)), nil
	}

	combined, err := t.guidelines.GetMerged(ctx, request.Type, site.ID)
	if err != nil {
		return mcp.NewToolResultError(failureMessage(err)), nil
	}

	projectInfo := t.gatherProjectInfo(ctx, req, request.Subject, site.ID)

	if rule.NeedsFindings {
		session := t.sessions.Create(request.Type, request.Subject, *site, tpl, combined, projectInfo)
		return mcp.NewToolResultText(t.renderPlanRequest(session, rule)), nil
	}

	findings := t.baseFindings(rule, request.Subject, projectInfo)
	t.addSchemaFindings(ctx, req, request.Type, site.ID, findings)

	doc := assemble.Assemble(tpl, combined, findings)
	return mcp.NewToolResultText(doc), nil
}

// gatherProjectInfo combines the analysis engine's project context
// with ticket text when an issue key was given. Both sources are
// supplementary: a failure is logged, not surfaced.
func (t *CreateDocumentTool) gatherProjectInfo(ctx context.Context, req mcp.CallToolRequest, subject, siteID string) string {
	var parts []string

	info, err := t.backend.ProjectInfo(ctx, subject, siteID)
	if err != nil {
		t.logger.Warn("project info unavailable", zap.String("subject", subject), zap.Error(err))
	} else if info != "" {
		parts = append(parts, info)
	}

	if key := strings.TrimSpace(req.GetString("issueKey", "")); key != "" && t.tracker != nil {
		issue, err := t.tracker.Issue(ctx, key)
		if err != nil {
			t.logger.Warn("issue lookup failed", zap.String("key", key), zap.Error(err))
		} else {
			parts = append(parts, fmt.Sprintf("[%s] %s\n%s", issue.Key, issue.Summary, issue.Description))
		}
	}

	return strings.Join(parts, "\n\n")
}

// baseFindings are the values every single-shot document gets.
func (t *CreateDocumentTool) baseFindings(rule classify.Rule, subject, projectInfo string) map[string]any {
	findings := map[string]any{
		"subject": subject,
		"title":   subject + " " + rule.Label,
	}
	if projectInfo != "" {
		findings["project_info"] = projectInfo
	}
	return findings
}

// addSchemaFindings fills column data for table specifications: the
// analysis engine first, then the external-database fallback.
func (t *CreateDocumentTool) addSchemaFindings(ctx context.Context, req mcp.CallToolRequest, dt classify.DocumentType, siteID string, findings map[string]any) {
	if dt != classify.TypeTableSpecification {
		return
	}
	tableName := strings.TrimSpace(req.GetString("tableName", ""))
	if tableName == "" {
		return
	}
	findings["table_name"] = tableName

	cols, err := t.backend.TableSchema(ctx, tableName, siteID)
	if err != nil && errors.Is(err, backend.ErrNotFound) && t.inspector != nil {
		cols, err = t.inspector.TableColumns(ctx, tableName)
		if errors.Is(err, extdb.ErrNoSchema) {
			t.logger.Info("no schema in fallback database", zap.String("table", tableName))
		}
	}
	if err != nil {
		t.logger.Warn("schema lookup failed", zap.String("table", tableName), zap.Error(err))
		return
	}
	findings["columns"] = columnsToFindings(cols)
}

// renderPlanRequest is the phase-1 response: everything the caller
// needs to explore the codebase and come back with findings.
func (t *CreateDocumentTool) renderPlanRequest(s *workflow.Session, rule classify.Rule) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s 작성 준비 완료 — 코드베이스 분석이 필요합니다\n\n", rule.Label)
	fmt.Fprintf(&b, "**세션 ID:** `%s`\n", s.ID)
	fmt.Fprintf(&b, "**대상:** %s\n", s.Subject)
	fmt.Fprintf(&b, "**사이트:** %s (%s)\n\n", s.Site.Name, s.Site.ID)

	b.WriteString("## 다음 단계\n\n")
	b.WriteString("1. 아래 템플릿 변수를 채우기 위한 코드베이스 탐색 계획을 세우세요.\n")
	b.WriteString("2. 계획을 실행해 관련 함수, 호출 관계, 영향 범위를 수집하세요.\n")
	b.WriteString("3. `continue_workflow`를 세션 ID와 함께 호출하세요:\n")
	b.WriteString("   - `sessionId`: 위 세션 ID\n")
	b.WriteString("   - `searchPlan`: 수행한 탐색 계획 요약\n")
	b.WriteString("   - `codebaseFindings`: 변수명 → 값 객체\n")
	b.WriteString("   - `additionalAnalysis`: 그 밖의 분석 내용 (선택)\n\n")

	if len(s.Template.Variables) > 0 {
		b.WriteString("## 채워야 할 템플릿 변수\n\n")
		names := make([]string, 0, len(s.Template.Variables))
		for name := range s.Template.Variables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- `%s` — %s\n", name, s.Template.Variables[name])
		}
		b.WriteByte('\n')
	}

	b.WriteString("## 템플릿\n\n```\n")
	b.WriteString(s.Template.Text)
	b.WriteString("\n```\n")

	if s.Guidelines.Count > 0 {
		b.WriteString("\n## 작성 지침 (참고용)\n\n")
		if s.Guidelines.Role != "" {
			b.WriteString(s.Guidelines.Role)
			b.WriteByte('\n')
		}
		if s.Guidelines.Objective != "" {
			b.WriteString(s.Guidelines.Objective)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

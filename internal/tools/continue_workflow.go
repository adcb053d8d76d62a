package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docforge/docforge/internal/assemble"
	"github.com/docforge/docforge/internal/workflow"
)

// ContinueWorkflowTool handles the continue_workflow MCP tool — the
// second phase of an interactive document generation. It claims the
// session, merges the caller's codebase findings into the stored
// template, and returns the finished document. Sessions are single
// use: a second continuation with the same id fails.
type ContinueWorkflowTool struct {
	sessions *workflow.Store
}

// NewContinueWorkflowTool creates the tool over the shared session
// store.
func NewContinueWorkflowTool(sessions *workflow.Store) *ContinueWorkflowTool {
	return &ContinueWorkflowTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *ContinueWorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("continue_workflow",
		mcp.WithDescription(
			"Finish an interactive document generation started by create_document. "+
				"Supply the session id from phase 1 together with the codebase findings "+
				"you gathered. The session is consumed: it cannot be continued twice.",
		),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session id returned by create_document's phase-1 response."),
		),
		mcp.WithString("searchPlan",
			mcp.Required(),
			mcp.Description("Summary of the codebase exploration plan you executed."),
		),
		mcp.WithObject("codebaseFindings",
			mcp.Required(),
			mcp.Description("Object mapping template variable names to values. Scalars are "+
				"inserted verbatim, arrays become numbered lines, nested objects become "+
				"indented blocks."),
		),
		mcp.WithString("additionalAnalysis",
			mcp.Description("Free-form analysis that fits no template variable. Appended to the document."),
		),
	)
}

// Handle processes the continue_workflow tool call.
func (t *ContinueWorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := strings.TrimSpace(req.GetString("sessionId", ""))
	if sessionID == "" {
		return mcp.NewToolResultError("'sessionId' is required — use the id from the phase-1 response"), nil
	}
	searchPlan := strings.TrimSpace(req.GetString("searchPlan", ""))
	if searchPlan == "" {
		return mcp.NewToolResultError("'searchPlan' is required — summarize how you explored the codebase"), nil
	}

	args := req.GetArguments()
	findingsArg, ok := args["codebaseFindings"].(map[string]any)
	if !ok || len(findingsArg) == 0 {
		return mcp.NewToolResultError(
			"'codebaseFindings' is required — an object mapping template variable names to the values you found",
		), nil
	}

	session, err := t.sessions.Take(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"세션 %q이(가) 존재하지 않거나 만료되었습니다 (세션 유효시간: %s).\n\n"+
				"이미 사용된 세션일 수도 있습니다. create_document를 다시 호출해 새 세션으로 시작해 주세요.",
			sessionID, t.sessions.TTL(),
		)), nil
	}

	findings := make(map[string]any, len(findingsArg)+4)
	for k, v := range findingsArg {
		findings[k] = v
	}
	if _, ok := findings["subject"]; !ok {
		findings["subject"] = session.Subject
	}
	if session.ProjectInfo != "" {
		if _, ok := findings["project_info"]; !ok {
			findings["project_info"] = session.ProjectInfo
		}
	}
	findings["search_plan"] = searchPlan
	if extra := strings.TrimSpace(req.GetString("additionalAnalysis", "")); extra != "" {
		findings["additional_analysis"] = extra
	}

	doc := assemble.Assemble(session.Template, session.Guidelines, findings)
	return mcp.NewToolResultText(doc), nil
}

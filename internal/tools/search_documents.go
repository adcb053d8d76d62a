package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docforge/docforge/internal/sites"
)

// SearchDocumentsTool handles the search_documents MCP tool, a thin
// window onto the backend's document index.
type SearchDocumentsTool struct {
	directory *sites.Directory
	backend   documentBackend
}

// NewSearchDocumentsTool creates the tool.
func NewSearchDocumentsTool(directory *sites.Directory, bc documentBackend) *SearchDocumentsTool {
	return &SearchDocumentsTool{directory: directory, backend: bc}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchDocumentsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription(
			"Search existing documents in the backend by keyword. Useful before "+
				"generating a new document, to check whether one already exists.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search keywords, e.g. '주문 테이블' or 'payment impact'."),
		),
		mcp.WithString("siteName",
			mcp.Description("Restrict results to one site (id or name)."),
		),
	)
}

// Handle processes the search_documents tool call.
func (t *SearchDocumentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("'query' is required — what should the search look for?"), nil
	}

	siteID := ""
	if token := strings.TrimSpace(req.GetString("siteName", "")); token != "" {
		site, err := t.directory.Resolve(ctx, token)
		if err != nil {
			return mcp.NewToolResultError(failureMessage(err)), nil
		}
		siteID = site.ID
	}

	hits, err := t.backend.SearchDocuments(ctx, query, siteID)
	if err != nil {
		return mcp.NewToolResultError(failureMessage(err)), nil
	}

	if len(hits) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"%q에 대한 검색 결과가 없습니다. 더 일반적인 키워드로 다시 시도해 보세요.", query,
		)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 검색 결과: %q (%d건)\n\n", query, len(hits))
	for _, h := range hits {
		fmt.Fprintf(&b, "- **%s** (%s, site: %s, 수정: %s)\n", h.Title, h.DocumentType, h.SiteID, h.UpdatedAt)
		if h.Snippet != "" {
			fmt.Fprintf(&b, "  > %s\n", h.Snippet)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

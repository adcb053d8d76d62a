package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docforge/docforge/internal/sites"
)

// ListSitesTool handles the list_sites MCP tool. It exists so a caller
// hitting SiteNotFound can see what the backend actually knows.
type ListSitesTool struct {
	directory *sites.Directory
}

// NewListSitesTool creates the tool over the shared site directory.
func NewListSitesTool(directory *sites.Directory) *ListSitesTool {
	return &ListSitesTool{directory: directory}
}

// Definition returns the MCP tool definition for registration.
func (t *ListSitesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_sites",
		mcp.WithDescription(
			"List the sites registered in the backend. Use when a document request "+
				"failed with an unknown site, or to pick a site id for create_document.",
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Force a live refresh of the site list instead of the cached snapshot."),
		),
	)
}

// Handle processes the list_sites tool call.
func (t *ListSitesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req.GetBool("refresh", false) {
		if err := t.directory.Refresh(ctx); err != nil {
			return mcp.NewToolResultError(failureMessage(err)), nil
		}
	}

	all, err := t.directory.All(ctx)
	if err != nil {
		return mcp.NewToolResultError(failureMessage(err)), nil
	}
	return mcp.NewToolResultText(renderSiteList(all)), nil
}

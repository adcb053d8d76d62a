// Package server wires all components and creates the MCP server
// instance.
//
// This is the composition root: it loads configuration, creates the
// concrete stores and clients, and injects them into the tool
// handlers. No business logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/docforge/docforge/internal/backend"
	"github.com/docforge/docforge/internal/classify"
	"github.com/docforge/docforge/internal/config"
	"github.com/docforge/docforge/internal/extdb"
	"github.com/docforge/docforge/internal/fpcache"
	"github.com/docforge/docforge/internal/guidelines"
	"github.com/docforge/docforge/internal/logging"
	"github.com/docforge/docforge/internal/sites"
	"github.com/docforge/docforge/internal/tools"
	"github.com/docforge/docforge/internal/tracker"
	"github.com/docforge/docforge/internal/workflow"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools
// registered. The returned cleanup function flushes the logger and
// must be called on shutdown.
func New() (*server.MCPServer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, noop, fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.New(cfg.Quiet)
	cleanup := func() { _ = logger.Sync() }

	// --- Shared stores and clients ---

	cache := fpcache.New(cfg.Cache.Dir, logger)
	if removed := cache.Sweep(cfg.Cache.BackendTTL); removed > 0 {
		logger.Info("swept stale cache entries", zap.Int("removed", removed))
	}

	backendClient := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, cache, backend.TTLConfig{
		Backend:   cfg.Cache.BackendTTL,
		Guideline: cfg.Cache.GuidelineTTL,
		Site:      cfg.Cache.SiteTTL,
	}, logger)

	directory := sites.NewDirectory(backendClient)
	guidelineCache := guidelines.NewCache(backendClient, cfg.Cache.GuidelineTTL)
	sessions := workflow.NewStore(cfg.Workflow.SessionTTL)

	// The issue tracker is optional: without a URL the create tool
	// simply ignores issueKey arguments.
	var issueReader *tracker.Client
	if cfg.Tracker.BaseURL != "" {
		issueReader = tracker.New(cfg.Tracker.BaseURL, cfg.Tracker.Token, cfg.Tracker.Timeout, cache, cfg.Cache.BackendTTL)
	}

	// The external database is an optional fallback input for table
	// specifications. A bad configuration disables it with a warning
	// instead of failing startup.
	var inspector *extdb.Inspector
	if cfg.ExtDB.DSN != "" {
		inspector, err = extdb.New(cfg.ExtDB.Driver, cfg.ExtDB.DSN)
		if err != nil {
			logger.Warn("external database disabled", zap.Error(err))
			inspector = nil
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"docforge",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	table := classify.DefaultTable()

	createTool := tools.NewCreateDocumentTool(
		table, directory, backendClient, guidelineCache, sessions,
		trackerOrNil(issueReader), inspectorOrNil(inspector),
		cfg.DefaultSite, logger,
	)
	s.AddTool(createTool.Definition(), createTool.Handle)

	continueTool := tools.NewContinueWorkflowTool(sessions)
	s.AddTool(continueTool.Definition(), continueTool.Handle)

	listSitesTool := tools.NewListSitesTool(directory)
	s.AddTool(listSitesTool.Definition(), listSitesTool.Handle)

	searchTool := tools.NewSearchDocumentsTool(directory, backendClient)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	logger.Info("docforge ready",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("default_site", cfg.DefaultSite),
		zap.Bool("tracker", issueReader != nil),
		zap.Bool("extdb", inspector != nil),
	)

	return s, cleanup, nil
}

// noop is the default cleanup when initialization fails early.
func noop() {}

// trackerOrNil converts a possibly-nil concrete client into the
// interface the tools accept. A plain assignment would produce a
// non-nil interface wrapping a nil pointer.
func trackerOrNil(c *tracker.Client) tools.IssueReader {
	if c == nil {
		return nil
	}
	return c
}

// inspectorOrNil, same reason as trackerOrNil.
func inspectorOrNil(i *extdb.Inspector) tools.SchemaInspector {
	if i == nil {
		return nil
	}
	return i
}

// serverInstructions tells the AI client how to drive the document
// workflow.
func serverInstructions() string {
	return `You have access to docforge, a technical document generation server.

## When to use docforge

Use it when the user asks for a technical document: 영향도 분석서 (impact
analysis), 테이블 명세서 (table specification), 인터페이스 명세서
(interface specification), 프로그램 명세서, 요구사항 정의서.

## How the workflow runs

1. Call create_document with the user's request text. Include siteName
   when the user named a site, and issueKey when a ticket is involved.
2. Simple document types come back finished immediately.
3. Types that need codebase analysis return a session id plus a list of
   template variables to fill. Then:
   - Devise a codebase exploration plan for those variables.
   - Execute it: find the related functions, call sites, and impact
     surface in the user's codebase.
   - Call continue_workflow with the sessionId, your searchPlan, and
     codebaseFindings mapping variable names to what you found.
4. Sessions are single-use and expire — if continue_workflow reports an
   expired session, start over with create_document.

## Tips

- Use list_sites when a site name is rejected.
- Use search_documents to check for an existing document first.
- Never invent findings: only report what you actually observed in the
  codebase.`
}

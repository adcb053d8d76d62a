// docforge: document generation MCP server
//
// Mediates between an AI development assistant and a document/knowledge
// backend: it classifies a natural-language request, resolves the
// target site, fetches templates and authoring guidelines, and either
// assembles the document directly or runs a two-round workflow that
// asks the assistant for codebase findings first.
//
// Usage:
//
//	docforge serve     # Start MCP server (stdio transport)
//	docforge version   # Print version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	dfserver "github.com/docforge/docforge/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("docforge v%s\n", dfserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := dfserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `docforge v%s — document generation MCP server

Usage:
  docforge serve     Start the MCP server (stdio transport)
  docforge version   Print version

Configuration (environment, .env supported):
  DOCFORGE_BACKEND_URL     Backend base URL (required)
  DOCFORGE_DEFAULT_SITE    Site id or name used when a request names none
  DOCFORGE_TRACKER_URL     Issue tracker base URL (optional)
  DOCFORGE_TRACKER_TOKEN   Issue tracker bearer token
  DOCFORGE_CACHE_DIR       Fingerprint cache root (default ~/.docforge/cache)
  DOCFORGE_EXTDB_DSN       Fallback database for table specifications
  DOCFORGE_QUIET           Suppress diagnostic output

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "docforge": {
        "command": "docforge",
        "args": ["serve"],
        "env": { "DOCFORGE_BACKEND_URL": "http://localhost:8080" }
      }
    }
  }
`, dfserver.Version)
}

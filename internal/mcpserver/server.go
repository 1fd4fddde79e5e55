// Package mcpserver exposes the distillation toolkit over the Model Context
// Protocol so agent frontends can start runs, poll progress, and export
// datasets.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/distillkit/distillkit/internal/export"
	"github.com/distillkit/distillkit/internal/observability"
	"github.com/distillkit/distillkit/internal/store"
	"github.com/distillkit/distillkit/internal/task"
)

// Server wraps the MCP server with the toolkit's services.
type Server struct {
	store    store.Store
	runner   *task.Runner
	exporter *export.Exporter
	logger   *observability.Logger

	// Run defaults applied when a tool call omits them.
	defaultModel    string
	defaultLanguage string

	mcpServer *server.MCPServer
}

// New creates an MCP server exposing the distillation tools. logger may be
// nil.
func New(st store.Store, runner *task.Runner, exporter *export.Exporter, version, defaultModel, defaultLanguage string, logger *observability.Logger) *Server {
	s := &Server{
		store:           st,
		runner:          runner,
		exporter:        exporter,
		logger:          logger,
		defaultModel:    defaultModel,
		defaultLanguage: defaultLanguage,
	}

	s.mcpServer = server.NewMCPServer(
		"distillkit",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()

	return s
}

// Server returns the underlying MCP server, for embedding into an HTTP
// transport.
func (s *Server) Server() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the MCP protocol over stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	if s.logger != nil {
		s.logger.Info("serving mcp over stdio")
	}
	return server.ServeStdio(s.mcpServer)
}

// Package mcpserver exposes the inference engine over the Model Context
// Protocol, so an editor or agent can ask public_type/definition_type
// questions about a project without linking against Go directly.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/basalt-sh/tycore/pkg/engine"
	"github.com/basalt-sh/tycore/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for tycore, exposing public_type and
// definition_type as tools.
type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
	logger    *mcplog.Logger // may be nil if logging is disabled
}

// NewServer creates an MCP server backed by e. Pass nil for logger to
// disable call logging.
func NewServer(e *engine.Engine, logger *mcplog.Logger) *Server {
	s := &Server{engine: e, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("tycore", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: publicTypeTool(), Handler: s.handlePublicType},
		server.ServerTool{Tool: definitionTypeTool(), Handler: s.handleDefinitionType},
		server.ServerTool{Tool: resolveModuleTool(), Handler: s.handleResolveModule},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the logger if one is active. Should be deferred after
// NewServer.
func (s *Server) Close() error {
	if s.logger != nil {
		return s.logger.Close()
	}
	return nil
}

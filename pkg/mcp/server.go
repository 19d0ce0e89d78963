package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/device/schema"
	"github.com/urmzd/nipcam/pkg/discovery"
)

// Server wraps the MCP server with the camera bridge tools
type Server struct {
	mcpServer  *server.MCPServer
	controller device.Controller
	validator  *schema.Validator
	discoverer discovery.Discoverer
}

// NewServer creates a new MCP server for camera management
func NewServer(controller device.Controller, validator *schema.Validator, discoverer discovery.Discoverer) *Server {
	s := &Server{
		controller: controller,
		validator:  validator,
		discoverer: discoverer,
	}

	s.mcpServer = server.NewMCPServer(
		"nipcam",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

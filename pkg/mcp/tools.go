package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check the health of the camera bridge and how many cameras are reachable"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_cameras",
			mcp.WithDescription("List all configured cameras with their sensor states"),
		),
		s.handleListCameras,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_camera",
			mcp.WithDescription("Get a camera's attributes, stream URLs and sensors"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Camera ID"),
			),
		),
		s.handleGetCamera,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_camera_state",
			mcp.WithDescription("Get the on/off/unknown state of every binary sensor of a camera"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Camera ID"),
			),
		),
		s.handleGetCameraState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_camera_events",
			mcp.WithDescription("Get the latest raw values received on a camera's notification stream"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Camera ID"),
			),
		),
		s.handleGetCameraEvents,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("refresh_camera",
			mcp.WithDescription("Re-read a camera's attributes, setting it up again if it was unreachable"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Camera ID"),
			),
		),
		s.handleRefreshCamera,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("rename_camera",
			mcp.WithDescription("Change a camera's display name"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Camera ID"),
			),
			mcp.WithString("new_name",
				mcp.Required(),
				mcp.Description("New display name"),
			),
		),
		s.handleRenameCamera,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("remove_camera",
			mcp.WithDescription("Stop listening to a camera and delete its configuration"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Camera ID"),
			),
		),
		s.handleRemoveCamera,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_camera",
			mcp.WithDescription("Add a NIPCA camera. The credentials are checked by downloading a still image before the camera is stored."),
			mcp.WithString("url",
				mcp.Required(),
				mcp.Description("UPnP device description URL, e.g. http://192.168.1.20/description.xml"),
			),
			mcp.WithString("name",
				mcp.Description("Display name (default \"NIPCA Custom\")"),
			),
			mcp.WithString("username",
				mcp.Description("Camera user name"),
			),
			mcp.WithString("password",
				mcp.Description("Camera password"),
			),
			mcp.WithString("auth_mode",
				mcp.Description("HTTP authentication scheme (default basic)"),
				mcp.Enum("basic", "digest", "none"),
			),
			mcp.WithBoolean("verify_ssl",
				mcp.Description("Verify the camera's TLS certificate (default false)"),
			),
			mcp.WithNumber("poll_interval_seconds",
				mcp.Description("Seconds between event polls (default 10)"),
			),
		),
		s.handleAddCamera,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("discover_cameras",
			mcp.WithDescription("Search the local network for NIPCA cameras over SSDP"),
		),
		s.handleDiscoverCameras,
	)
}

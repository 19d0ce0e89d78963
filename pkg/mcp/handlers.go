package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/nipca"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := GetHealthOutput{
		Status:     "healthy",
		Controller: "connected",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	if !s.controller.IsConnected() {
		out.Status = "unhealthy"
		out.Controller = "disconnected"
		return mcp.NewToolResultText(formatJSON(out)), nil
	}

	if cameras, err := s.controller.ListDevices(ctx); err == nil {
		out.Cameras = len(cameras)
		for _, c := range cameras {
			if c.Available {
				out.Available++
			}
		}
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListCameras(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cameras, err := s.controller.ListDevices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list cameras: %s", err)), nil
	}

	infos := make([]CameraInfo, 0, len(cameras))
	for i := range cameras {
		info := CameraToInfo(&cameras[i])
		if state, err := s.controller.GetDeviceState(ctx, cameras[i].ID); err == nil {
			info.State = state
		}
		infos = append(infos, info)
	}

	out := ListCamerasOutput{
		Cameras: infos,
		Count:   len(infos),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetCamera(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.controller.GetDevice(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("camera not found: %s", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(s.cameraOutput(ctx, d))), nil
}

func (s *Server) handleGetCameraState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.controller.GetDeviceState(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get camera state: %s", err)), nil
	}

	out := GetCameraStateOutput{
		CameraID: id,
		State:    state,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetCameraEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := s.controller.GetDeviceEvents(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get camera events: %s", err)), nil
	}

	out := GetCameraEventsOutput{
		CameraID: id,
		Events:   events,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleRefreshCamera(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.controller.RefreshDevice(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh camera: %s", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(s.cameraOutput(ctx, d))), nil
}

func (s *Server) handleRenameCamera(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newName, err := requiredString(request, "new_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.RenameDevice(ctx, id, newName); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to rename camera: %s", err)), nil
	}

	out := ActionOutput{
		Success: true,
		Message: fmt.Sprintf("Camera %q renamed to %q", id, newName),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleRemoveCamera(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.RemoveDevice(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to remove camera: %s", err)), nil
	}

	out := ActionOutput{
		Success: true,
		Message: fmt.Sprintf("Camera %q removed", id),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleAddCamera(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	payload := make(map[string]any, len(args))
	for k, v := range args {
		payload[k] = v
	}
	// JSON numbers arrive as float64; the schema wants an integer.
	if f, ok := payload["poll_interval_seconds"].(float64); ok && f == float64(int(f)) {
		payload["poll_interval_seconds"] = int(f)
	}

	if s.validator != nil {
		if err := s.validator.ValidateCameraCreate(payload); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("validation error: %s", err)), nil
		}
	}

	cfg := device.CameraConfig{
		Name:     request.GetString("name", ""),
		URL:      request.GetString("url", ""),
		Username: request.GetString("username", ""),
		Password: request.GetString("password", ""),
		AuthMode: request.GetString("auth_mode", ""),
	}
	cfg.VerifySSL = request.GetBool("verify_ssl", false)
	cfg.PollIntervalSeconds = request.GetInt("poll_interval_seconds", 0)

	d, err := s.controller.AddDevice(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add camera: %s", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(s.cameraOutput(ctx, d))), nil
}

func (s *Server) handleDiscoverCameras(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.discoverer == nil {
		return mcp.NewToolResultError("discovery is not available"), nil
	}

	locations, err := s.discoverer.Discover(ctx, nipca.DeviceTypeBasic)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("discovery failed: %s", err)), nil
	}

	configured := make(map[string]bool)
	if cameras, err := s.controller.ListDevices(ctx); err == nil {
		for _, c := range cameras {
			configured[c.URL] = true
		}
	}

	found := make([]DiscoveredCamera, 0, len(locations))
	for _, loc := range locations {
		found = append(found, DiscoveredCamera{URL: loc, Configured: configured[loc]})
	}

	out := DiscoverCamerasOutput{
		Cameras: found,
		Count:   len(found),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

func (s *Server) cameraOutput(ctx context.Context, d *device.Device) GetCameraOutput {
	info := CameraToInfo(d)
	if state, err := s.controller.GetDeviceState(ctx, d.ID); err == nil {
		info.State = state
	}

	sensors := d.Sensors
	if sensors == nil {
		sensors = []device.Sensor{}
	}
	return GetCameraOutput{Camera: info, Sensors: sensors}
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/urmzd/nipcam/pkg/api/types"
	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/device/schema"
)

// CamerasHandler handles camera CRUD and state endpoints
type CamerasHandler struct {
	controller device.Controller
	validator  *schema.Validator
}

// NewCamerasHandler creates a new cameras handler
func NewCamerasHandler(controller device.Controller, validator *schema.Validator) *CamerasHandler {
	return &CamerasHandler{controller: controller, validator: validator}
}

// ListCameras handles GET /cameras
// @Summary      List cameras
// @Description  Returns every configured camera, reachable or not
// @Tags         cameras
// @Produce      json
// @Success      200  {object}  types.ListCamerasResponse
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /cameras [get]
func (h *CamerasHandler) ListCameras(c *gin.Context) {
	cameras, err := h.controller.ListDevices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ListCamerasResponse{
		Cameras: cameras,
		Count:   len(cameras),
	})
}

// CreateCamera handles POST /cameras
// @Summary      Add a camera
// @Description  Checks the camera answers with the given credentials, then stores and starts it
// @Tags         cameras
// @Accept       json
// @Produce      json
// @Param        request  body      types.CreateCameraRequest  true  "Camera configuration"
// @Success      201      {object}  types.CameraResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      409      {object}  types.ErrorResponse  "Camera already configured"
// @Failure      422      {object}  types.ErrorResponse  "Credentials rejected"
// @Failure      502      {object}  types.ErrorResponse  "Camera unreachable"
// @Router       /cameras [post]
func (h *CamerasHandler) CreateCamera(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.validator.ValidateCameraCreate(payload); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var req types.CreateCameraRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	cam, err := h.controller.AddDevice(c.Request.Context(), req.CameraConfig())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.CameraResponse{Camera: *cam})
}

// GetCamera handles GET /cameras/:id
// @Summary      Get camera details
// @Description  Returns a camera with its attributes and sensors
// @Tags         cameras
// @Produce      json
// @Param        id   path      string  true  "Camera ID"
// @Success      200  {object}  types.CameraResponse
// @Failure      404  {object}  types.ErrorResponse  "Camera not found"
// @Router       /cameras/{id} [get]
func (h *CamerasHandler) GetCamera(c *gin.Context) {
	cam, err := h.controller.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.CameraResponse{Camera: *cam})
}

// UpdateCamera handles PATCH /cameras/:id
// @Summary      Rename a camera
// @Description  Changes the display name of a camera
// @Tags         cameras
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Camera ID"
// @Param        request  body      types.UpdateCameraRequest  true  "New name"
// @Success      200      {object}  types.CameraResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Camera not found"
// @Router       /cameras/{id} [patch]
func (h *CamerasHandler) UpdateCamera(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.validator.ValidateCameraUpdate(payload); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	name, _ := payload["name"].(string)
	if err := h.controller.RenameDevice(ctx, id, name); err != nil {
		writeError(c, err)
		return
	}

	cam, err := h.controller.GetDevice(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.CameraResponse{Camera: *cam})
}

// DeleteCamera handles DELETE /cameras/:id
// @Summary      Remove a camera
// @Description  Stops the camera's listener and deletes its configuration
// @Tags         cameras
// @Param        id   path  string  true  "Camera ID"
// @Success      204  "Camera removed"
// @Failure      404  {object}  types.ErrorResponse  "Camera not found"
// @Router       /cameras/{id} [delete]
func (h *CamerasHandler) DeleteCamera(c *gin.Context) {
	if err := h.controller.RemoveDevice(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetState handles GET /cameras/:id/state
// @Summary      Get sensor states
// @Description  Returns on, off or unknown for every sensor of the camera
// @Tags         cameras
// @Produce      json
// @Param        id   path      string  true  "Camera ID"
// @Success      200  {object}  types.StateResponse
// @Failure      404  {object}  types.ErrorResponse  "Camera not found"
// @Failure      502  {object}  types.ErrorResponse  "Camera unavailable"
// @Router       /cameras/{id}/state [get]
func (h *CamerasHandler) GetState(c *gin.Context) {
	id := c.Param("id")

	state, err := h.controller.GetDeviceState(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Camera:    id,
		State:     state,
		Timestamp: time.Now(),
	})
}

// ListSensors handles GET /cameras/:id/sensors
// @Summary      List sensors
// @Description  Returns the binary sensors derived from the camera's capabilities
// @Tags         cameras
// @Produce      json
// @Param        id   path      string  true  "Camera ID"
// @Success      200  {object}  types.SensorsResponse
// @Failure      404  {object}  types.ErrorResponse  "Camera not found"
// @Router       /cameras/{id}/sensors [get]
func (h *CamerasHandler) ListSensors(c *gin.Context) {
	id := c.Param("id")

	sensors, err := h.controller.ListSensors(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.SensorsResponse{
		Camera:  id,
		Sensors: sensors,
		Count:   len(sensors),
	})
}

// GetEvents handles GET /cameras/:id/events
// @Summary      Get raw events
// @Description  Returns the latest value of every key seen on the camera's notification stream
// @Tags         cameras
// @Produce      json
// @Param        id   path      string  true  "Camera ID"
// @Success      200  {object}  types.EventsResponse
// @Failure      404  {object}  types.ErrorResponse  "Camera not found"
// @Router       /cameras/{id}/events [get]
func (h *CamerasHandler) GetEvents(c *gin.Context) {
	id := c.Param("id")

	events, err := h.controller.GetDeviceEvents(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.EventsResponse{
		Camera:    id,
		Events:    events,
		Timestamp: time.Now(),
	})
}

// RefreshCamera handles POST /cameras/:id/refresh
// @Summary      Refresh a camera
// @Description  Re-reads the camera attributes, setting it up again if it was unavailable
// @Tags         cameras
// @Produce      json
// @Param        id   path      string  true  "Camera ID"
// @Success      200  {object}  types.CameraResponse
// @Failure      404  {object}  types.ErrorResponse  "Camera not found"
// @Failure      502  {object}  types.ErrorResponse  "Camera unavailable"
// @Router       /cameras/{id}/refresh [post]
func (h *CamerasHandler) RefreshCamera(c *gin.Context) {
	cam, err := h.controller.RefreshDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.CameraResponse{Camera: *cam})
}

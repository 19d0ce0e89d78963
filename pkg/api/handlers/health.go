package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/urmzd/nipcam/pkg/api/types"
	"github.com/urmzd/nipcam/pkg/device"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	controller device.Controller
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(controller device.Controller) *HealthHandler {
	return &HealthHandler{controller: controller}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the health status of the bridge and how many cameras are reachable
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "Service is degraded"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := types.HealthResponse{
		Status:     "healthy",
		Controller: "connected",
		Timestamp:  time.Now(),
	}

	if !h.controller.IsConnected() {
		resp.Status = "degraded"
		resp.Controller = "disconnected"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	if cameras, err := h.controller.ListDevices(c.Request.Context()); err == nil {
		resp.Cameras = len(cameras)
		for _, cam := range cameras {
			if cam.Available {
				resp.Available++
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

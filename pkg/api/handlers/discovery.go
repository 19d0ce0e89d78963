package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/nipcam/pkg/api/types"
	"github.com/urmzd/nipcam/pkg/device"
	"github.com/urmzd/nipcam/pkg/discovery"
	"github.com/urmzd/nipcam/pkg/nipca"
)

// DiscoveryHandler handles camera discovery endpoints
type DiscoveryHandler struct {
	controller device.Controller
	discoverer discovery.Discoverer
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(controller device.Controller, discoverer discovery.Discoverer) *DiscoveryHandler {
	return &DiscoveryHandler{
		controller: controller,
		discoverer: discoverer,
	}
}

// Discover handles GET /discovery
// @Summary      Discover cameras
// @Description  Searches the local network for NIPCA cameras over SSDP and flags the ones already configured
// @Tags         discovery
// @Produce      json
// @Success      200  {object}  types.DiscoveryResponse
// @Failure      500  {object}  types.ErrorResponse  "Search failed"
// @Router       /discovery [get]
func (h *DiscoveryHandler) Discover(c *gin.Context) {
	ctx := c.Request.Context()

	locations, err := h.discoverer.Discover(ctx, nipca.DeviceTypeBasic)
	if err != nil {
		log.Warn().Err(err).Msg("Camera discovery failed")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "discovery_error",
			Message: err.Error(),
		})
		return
	}

	configured := make(map[string]bool)
	if cameras, err := h.controller.ListDevices(ctx); err == nil {
		for _, cam := range cameras {
			configured[cam.URL] = true
		}
	}

	found := make([]types.DiscoveredCamera, 0, len(locations))
	for _, loc := range locations {
		found = append(found, types.DiscoveredCamera{URL: loc, Configured: configured[loc]})
	}

	c.JSON(http.StatusOK, types.DiscoveryResponse{
		Cameras: found,
		Count:   len(found),
	})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urmzd/nipcam/pkg/api/types"
	"github.com/urmzd/nipcam/pkg/device"
)

// writeError maps controller errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "controller_error"

	switch {
	case errors.Is(err, device.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, device.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, device.ErrAlreadyExists):
		status, code = http.StatusConflict, "already_configured"
	case errors.Is(err, device.ErrInvalidAuth):
		status, code = http.StatusUnprocessableEntity, "invalid_auth"
	case errors.Is(err, device.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, device.ErrUnavailable):
		status, code = http.StatusBadGateway, "cannot_connect"
	case errors.Is(err, device.ErrNotConnected):
		status, code = http.StatusServiceUnavailable, "controller_disconnected"
	case errors.Is(err, device.ErrUnsupported):
		status, code = http.StatusNotImplemented, "unsupported"
	}

	c.JSON(status, types.ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}

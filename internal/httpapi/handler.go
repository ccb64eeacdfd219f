// Package httpapi is the thin HTTP mapping layer spec.md scopes as an
// external collaborator: request binding, status codes, and error-shape
// translation. No business logic lives here — every handler delegates
// to a core service and serializes what comes back.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/regwatch/regwatch/internal/logger"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
)

// BaseHandler carries the dependencies every handler group needs:
// a logger and whether error detail may be surfaced unredacted.
type BaseHandler struct {
	Logger       logger.Logger
	RedactDetail bool
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "request error", "error", err, "path", c.Request.URL.Path)

	status := pkgerrors.ToHTTPStatus(err)
	response := pkgerrors.ToErrorResponse(err, h.RedactDetail)

	c.JSON(status, response)
}

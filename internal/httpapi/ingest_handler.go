package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regwatch/regwatch/internal/connector"
	"github.com/regwatch/regwatch/internal/ingestion"
	"github.com/regwatch/regwatch/internal/logger"
	"github.com/regwatch/regwatch/internal/record"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
)

// IngestHandler serves POST /api/ingest/{bulk,recent}.
type IngestHandler struct {
	BaseHandler
	engine    *ingestion.Engine
	connector connector.Connector
}

func NewIngestHandler(engine *ingestion.Engine, conn connector.Connector, log logger.Logger, redactDetail bool) *IngestHandler {
	return &IngestHandler{
		BaseHandler: BaseHandler{Logger: log, RedactDetail: redactDetail},
		engine:      engine,
		connector:   conn,
	}
}

func (h *IngestHandler) RegisterRoutes(router *gin.Engine) {
	ingest := router.Group("/api/ingest")
	{
		ingest.POST("/bulk", h.IngestBulk)
		ingest.POST("/recent", h.IngestRecent)
	}
}

// ingestRequest is the optional body for both ingest routes.
type ingestRequest struct {
	BatchSize int   `json:"batchSize"`
	Validate  *bool `json:"validate"`
	Hours     int   `json:"hours"`
}

func (r ingestRequest) options() ingestion.Options {
	opts := ingestion.DefaultOptions()
	if r.BatchSize > 0 {
		opts.BatchSize = r.BatchSize
	}
	if r.Validate != nil {
		opts.Validate = *r.Validate
	}
	return opts
}

func (h *IngestHandler) IngestBulk(c *gin.Context) {
	var req ingestRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithCause(err), h.RedactDetail))
		return
	}

	records, err := h.connector.FetchBulk(c.Request.Context())
	if err != nil {
		h.HandleError(c, pkgerrors.Wrap(err, pkgerrors.ErrStorage))
		return
	}

	result, err := h.engine.IngestRecords(c.Request.Context(), records, record.SourceBulk, req.options())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *IngestHandler) IngestRecent(c *gin.Context) {
	var req ingestRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithCause(err), h.RedactDetail))
		return
	}

	records, err := h.connector.FetchRecent(c.Request.Context(), req.Hours)
	if err != nil {
		h.HandleError(c, pkgerrors.Wrap(err, pkgerrors.ErrStorage))
		return
	}

	result, err := h.engine.IngestRecords(c.Request.Context(), records, record.SourceRecent, req.options())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// bindOptionalJSON binds the request body if present; an empty body is
// valid (all-defaults) for both ingest routes.
func bindOptionalJSON(c *gin.Context, out interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(out)
}

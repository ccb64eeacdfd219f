package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regwatch/regwatch/internal/catalog"
	"github.com/regwatch/regwatch/internal/export"
	"github.com/regwatch/regwatch/internal/logger"
)

// RecordsHandler serves GET /api/records and GET /api/export/csv.
type RecordsHandler struct {
	BaseHandler
	reader *catalog.Reader
}

func NewRecordsHandler(reader *catalog.Reader, log logger.Logger, redactDetail bool) *RecordsHandler {
	return &RecordsHandler{
		BaseHandler: BaseHandler{Logger: log, RedactDetail: redactDetail},
		reader:      reader,
	}
}

func (h *RecordsHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/records", h.List)
	router.GET("/api/export/csv", h.ExportCSV)
}

func (h *RecordsHandler) filterFromQuery(c *gin.Context) catalog.Filter {
	return catalog.Filter{
		EntityNameNorm: c.Query("entityNameNorm"),
		Region:         c.Query("region"),
		Status:         c.Query("status"),
		SourceKey:      c.Query("sourceKey"),
	}
}

func (h *RecordsHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 0)
	offset := parseIntQuery(c, "offset", 0)

	rows, pagination, err := h.reader.List(c.Request.Context(), h.filterFromQuery(c), limit, offset)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows, "pagination": pagination})
}

func (h *RecordsHandler) ExportCSV(c *gin.Context) {
	rows, err := h.reader.ListAll(c.Request.Context(), h.filterFromQuery(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="records.csv"`)

	if err := export.WriteRecordsCSV(c.Writer, rows); err != nil {
		h.Logger.ErrorwCtx(c.Request.Context(), "csv export failed mid-stream", "error", err)
	}
}

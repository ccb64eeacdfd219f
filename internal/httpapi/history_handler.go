package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regwatch/regwatch/internal/history"
	"github.com/regwatch/regwatch/internal/logger"
)

// HistoryHandler serves GET /api/ingestion/history.
type HistoryHandler struct {
	BaseHandler
	reader *history.Reader
}

func NewHistoryHandler(reader *history.Reader, log logger.Logger, redactDetail bool) *HistoryHandler {
	return &HistoryHandler{
		BaseHandler: BaseHandler{Logger: log, RedactDetail: redactDetail},
		reader:      reader,
	}
}

func (h *HistoryHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/ingestion/history", h.RunHistory)
}

func (h *HistoryHandler) RunHistory(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 0)
	offset := parseIntQuery(c, "offset", 0)

	rows, pagination, err := h.reader.RunHistory(c.Request.Context(), limit, offset)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows, "pagination": pagination})
}

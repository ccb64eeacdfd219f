package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/regwatch/regwatch/internal/alerts"
	"github.com/regwatch/regwatch/internal/history"
	"github.com/regwatch/regwatch/internal/logger"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
)

// AlertsHandler serves the /api/alerts routes.
type AlertsHandler struct {
	BaseHandler
	service *alerts.Service
	history *history.Reader
}

func NewAlertsHandler(service *alerts.Service, historyReader *history.Reader, log logger.Logger, redactDetail bool) *AlertsHandler {
	return &AlertsHandler{
		BaseHandler: BaseHandler{Logger: log, RedactDetail: redactDetail},
		service:     service,
		history:     historyReader,
	}
}

func (h *AlertsHandler) RegisterRoutes(router *gin.Engine) {
	alertsGroup := router.Group("/api/alerts")
	{
		alertsGroup.POST("", h.Create)
		alertsGroup.DELETE("/:id", h.Delete)
		alertsGroup.GET("/user/:userId", h.ListByUser)
		alertsGroup.GET("/user/:userId/stats", h.Stats)
		alertsGroup.GET("/logs", h.Logs)
	}
}

type createAlertRequest struct {
	UserID         int64   `json:"userId"`
	EntityNameNorm *string `json:"entityNameNorm"`
	Region         *string `json:"region"`
	Expression     *string `json:"expression"`
}

func (h *AlertsHandler) Create(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithCause(err), h.RedactDetail))
		return
	}

	rule, err := h.service.Create(c.Request.Context(), alerts.CreateInput{
		UserID:         req.UserID,
		EntityNameNorm: req.EntityNameNorm,
		Region:         req.Region,
		Expression:     req.Expression,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

type deleteAlertRequest struct {
	UserID int64 `json:"userId"`
}

func (h *AlertsHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithDetail("message", "id must be an integer"), h.RedactDetail))
		return
	}

	var req deleteAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithCause(err), h.RedactDetail))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, req.UserID); err != nil {
		h.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AlertsHandler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithDetail("message", "userId must be an integer"), h.RedactDetail))
		return
	}

	rules, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rules)
}

func (h *AlertsHandler) Stats(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithDetail("message", "userId must be an integer"), h.RedactDetail))
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *AlertsHandler) Logs(c *gin.Context) {
	filter := history.AlertLogFilter{
		ActionType: c.Query("actionType"),
	}
	if ruleIDStr := c.Query("alertRuleId"); ruleIDStr != "" {
		ruleID, err := strconv.ParseInt(ruleIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithDetail("message", "alertRuleId must be an integer"), h.RedactDetail))
			return
		}
		filter.AlertRuleID = ruleID
	}
	if userIDStr := c.Query("userId"); userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, pkgerrors.ToErrorResponse(pkgerrors.ErrValidation.WithDetail("message", "userId must be an integer"), h.RedactDetail))
			return
		}
		filter.UserID = userID
	}

	limit := parseIntQuery(c, "limit", 0)
	offset := parseIntQuery(c, "offset", 0)

	rows, pagination, err := h.history.AlertLogs(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows, "pagination": pagination})
}

func parseIntQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

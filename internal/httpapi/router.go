package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/regwatch/regwatch/pkg/health"
)

// Handlers bundles every route group the router wires up. Grouping
// them here keeps NewRouter's signature stable as routes are added.
type Handlers struct {
	Ingest  *IngestHandler
	Alerts  *AlertsHandler
	History *HistoryHandler
	Records *RecordsHandler
}

// NewRouter assembles the gin engine: route registration plus the
// operational /health and /api/metrics endpoints. Middleware (logging,
// recovery, request-id, rate limit, tracing) is applied by the caller
// before routes are registered, matching the teacher's initRouter order.
func NewRouter(router *gin.Engine, handlers Handlers, healthRegistry *health.CheckerRegistry) *gin.Engine {
	handlers.Ingest.RegisterRoutes(router)
	handlers.Alerts.RegisterRoutes(router)
	handlers.History.RegisterRoutes(router)
	handlers.Records.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		result := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if result.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, result)
	})

	router.GET("/api/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

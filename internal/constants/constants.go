package constants

import "time"

const (
	DefaultHTTPTimeout = 10 * time.Second
	ShutdownTimeout    = 10 * time.Second
	HealthCheckTimeout = 5 * time.Second
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

const (
	SourceTypeBulk   = "bulk"
	SourceTypeRecent = "recent"
)

const (
	ActionTypeInsert = "insert"
	ActionTypeUpdate = "update"
)

const (
	PlanStarter = "starter"
	PlanPro     = "pro"
	PlanTeam    = "team"
)

const (
	RecentWindow       = 72 * time.Hour
	AlertRuleCacheTTL  = 5 * time.Minute
	DefaultBatchSize   = 100
	SlowQueryThreshold = 1 * time.Second
	SlowQuerySnippet   = 100
)

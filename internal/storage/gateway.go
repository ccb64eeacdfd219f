// Package storage implements the gateway that owns the connection pool:
// query/transaction execution, retry on transient faults, slow-query
// observation, a background reconnect loop, and the health probe.
package storage

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/regwatch/regwatch/internal/logger"
	"github.com/regwatch/regwatch/pkg/circuitbreaker"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
	"github.com/regwatch/regwatch/pkg/metrics"
	"github.com/regwatch/regwatch/pkg/retry"
)

const (
	healthCheckDeadline  = 5 * time.Second
	shutdownDeadline     = 10 * time.Second
	slowQueryThreshold   = 1 * time.Second
	slowQuerySnippetLen  = 100
	reconnectMaxAttempts = 5
)

// Gateway is the single point every other component goes through to
// reach Postgres. It is constructed once at startup and passed down —
// there is no package-level mutable state.
type Gateway struct {
	db     *sql.DB
	logger logger.Logger

	retryPolicy retry.Policy
	breaker     *circuitbreaker.Wrapper

	mu        sync.RWMutex
	connected bool

	reconnectAttempts int64
}

func NewGateway(db *sql.DB, log logger.Logger) *Gateway {
	return &Gateway{
		db:     db,
		logger: log,
		retryPolicy: retry.Policy{
			MaxAttempts:     3,
			InitialInterval: 1 * time.Second,
			MaxInterval:     5 * time.Second,
			Multiplier:      2.0,
		},
		connected: true,
	}
}

// WithCircuitBreaker attaches a breaker guarding Query against a
// degraded database: once it trips, callers fail fast instead of
// piling up retries against a pool that is already struggling.
// Disabled (nil breaker) by default.
func (g *Gateway) WithCircuitBreaker(breaker *circuitbreaker.Wrapper) *Gateway {
	g.breaker = breaker
	return g
}

// Query runs a standalone read outside any transaction, making up to
// three attempts in total with exponential backoff (1s base, 5s cap) when the
// failure is flagged retryable. Transactional work never goes through
// this path.
func (g *Gateway) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	var rows *sql.Rows

	run := func() error {
		return retry.Retry(ctx, g.retryPolicy, func() error {
			r, qErr := g.db.QueryContext(ctx, query, args...)
			if qErr != nil {
				if isRetryableDriverError(qErr) {
					return retry.NewRetryableError(qErr)
				}
				return retry.NewFatalError(qErr)
			}
			rows = r
			return nil
		})
	}

	start := time.Now()
	var err error
	if g.breaker != nil {
		_, err = g.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
			return nil, run()
		})
	} else {
		err = run()
	}

	g.observeQuery("query", query, start, err)

	if err != nil {
		g.markDisconnected()
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return rows, nil
}

// Handle exposes the pool itself as a Handle for standalone reads that
// need no transaction (e.g. cache-refill queries, list endpoints).
func (g *Gateway) Handle() Handle {
	return g.db
}

// GetClient checks out a single connection from the pool for callers
// that need to hold one across several statements without a full
// transaction (e.g. a long-lived cursor).
func (g *Gateway) GetClient(ctx context.Context) (*sql.Conn, error) {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return conn, nil
}

// Transaction runs BEGIN, invokes scope with a transactional handle, and
// commits on success or rolls back on any returned error, releasing the
// connection on every exit path. Failures inside scope are never
// retried here — the transaction aborts and the caller decides.
func (g *Gateway) Transaction(ctx context.Context, scope func(ctx context.Context, tx Handle) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}

	if err := scope(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			g.logger.Errorw("transaction rollback failed", "rollback_error", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}

	return nil
}

// HealthCheck runs the trivial-read probe with a 5-second wall deadline.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckDeadline)
	defer cancel()

	if err := g.db.PingContext(ctx); err != nil {
		g.markDisconnected()
		return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}

	g.mu.Lock()
	g.connected = true
	g.mu.Unlock()
	return nil
}

func (g *Gateway) Connected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connected
}

func (g *Gateway) markDisconnected() {
	g.mu.Lock()
	wasConnected := g.connected
	g.connected = false
	g.mu.Unlock()

	if wasConnected {
		go g.reconnectLoop()
	}
}

// reconnectLoop engages on pool error, capped at five attempts with
// exponential backoff; after exhaustion the gateway stays degraded.
func (g *Gateway) reconnectLoop() {
	backoffDelay := 1 * time.Second

	for attempt := 1; attempt <= reconnectMaxAttempts; attempt++ {
		atomic.AddInt64(&g.reconnectAttempts, 1)
		metrics.StorageReconnectAttempts.Inc()

		ctx, cancel := context.WithTimeout(context.Background(), healthCheckDeadline)
		err := g.db.PingContext(ctx)
		cancel()

		if err == nil {
			g.mu.Lock()
			g.connected = true
			g.mu.Unlock()
			g.logger.Infow("storage gateway reconnected", "attempt", attempt)
			return
		}

		g.logger.Warnw("storage gateway reconnect attempt failed", "attempt", attempt, "error", err)
		time.Sleep(backoffDelay)
		backoffDelay *= 2
		if backoffDelay > 30*time.Second {
			backoffDelay = 30 * time.Second
		}
	}

	g.logger.Errorw("storage gateway reconnect attempts exhausted, staying degraded", "max_attempts", reconnectMaxAttempts)
}

// PoolStats reports the pool gauges consumed by the metrics endpoint.
func (g *Gateway) PoolStats() (total, idle, waiting int) {
	stats := g.db.Stats()
	total = stats.OpenConnections
	idle = stats.Idle
	waiting = int(stats.WaitCount)
	return
}

func (g *Gateway) ReportPoolMetrics() {
	total, idle, waiting := g.PoolStats()
	metrics.SetStoragePoolStats(total, idle, waiting)
}

// Shutdown closes the pool with a 10-second ceiling; on timeout the pool
// reference is dropped regardless.
func (g *Gateway) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownDeadline)
	defer cancel()

	db := g.db
	done := make(chan error, 1)
	go func() {
		done <- db.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		g.logger.Warnw("storage gateway shutdown timed out, dropping pool reference")
		g.db = nil
		return nil
	}
}

func (g *Gateway) observeQuery(operation, query string, start time.Time, err error) {
	duration := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ObserveStorageQuery(operation, status, duration)

	if duration > slowQueryThreshold {
		metrics.IncStorageSlowQuery(operation)
		g.logger.Warnw("slow query", "duration_ms", duration.Milliseconds(), "query", snippet(query))
	}
}

func snippet(query string) string {
	q := strings.TrimSpace(query)
	if len(q) <= slowQuerySnippetLen {
		return q
	}
	return q[:slowQuerySnippetLen]
}

func isRetryableDriverError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return true
	case strings.Contains(msg, "timeout"):
		return true
	case strings.Contains(msg, "admin shutdown"):
		return true
	case strings.Contains(msg, "serialization failure"):
		return true
	case strings.Contains(msg, "connection reset"):
		return true
	case strings.Contains(msg, "broken pipe"):
		return true
	}
	return false
}

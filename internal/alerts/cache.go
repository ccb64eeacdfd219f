package alerts

import (
	"sync"
	"time"

	"github.com/regwatch/regwatch/internal/constants"
)

// RuleCache is a process-local, advisory view of each user's rules.
// It serves bulk list reads only — fan-out matching and quota checks
// always go straight to the database inside the transaction, per the
// coherence rule that authoritative reads never trust the cache.
type RuleCache struct {
	ttl time.Duration

	mu          sync.RWMutex
	byUser      map[int64][]AlertRule
	lastRefresh map[int64]time.Time
}

func NewRuleCache() *RuleCache {
	return &RuleCache{
		ttl:         constants.AlertRuleCacheTTL,
		byUser:      make(map[int64][]AlertRule),
		lastRefresh: make(map[int64]time.Time),
	}
}

// Get returns the cached rules for userID and whether the entry is
// still fresh. A caller on a cache miss (or stale entry) is expected to
// reload from the database and call Set.
func (c *RuleCache) Get(userID int64) ([]AlertRule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stamp, ok := c.lastRefresh[userID]
	if !ok || time.Since(stamp) > c.ttl {
		return nil, false
	}
	return c.byUser[userID], true
}

// Set stores a freshly-loaded snapshot and resets the refresh stamp.
func (c *RuleCache) Set(userID int64, rules []AlertRule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byUser[userID] = rules
	c.lastRefresh[userID] = time.Now()
}

// Invalidate drops the refresh stamp for userID so the next Get reports
// a miss. Called after any create/delete so the next bulk read reloads.
func (c *RuleCache) Invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastRefresh, userID)
}

// Size reports the number of users currently cached, for the metrics gauge.
func (c *RuleCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byUser)
}

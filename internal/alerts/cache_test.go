package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRuleCacheMissBeforeSet(t *testing.T) {
	c := NewRuleCache()
	_, ok := c.Get(42)
	assert.False(t, ok)
}

func TestRuleCacheHitAfterSet(t *testing.T) {
	c := NewRuleCache()
	rules := []AlertRule{{ID: 1, UserID: 42}}
	c.Set(42, rules)

	got, ok := c.Get(42)
	assert.True(t, ok)
	assert.Equal(t, rules, got)
}

func TestRuleCacheInvalidate(t *testing.T) {
	c := NewRuleCache()
	c.Set(42, []AlertRule{{ID: 1}})
	c.Invalidate(42)

	_, ok := c.Get(42)
	assert.False(t, ok)
}

func TestRuleCacheExpiresAfterTTL(t *testing.T) {
	c := NewRuleCache()
	c.ttl = 10 * time.Millisecond
	c.Set(42, []AlertRule{{ID: 1}})

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get(42)
	assert.False(t, ok)
}

func TestRuleCacheSize(t *testing.T) {
	c := NewRuleCache()
	assert.Equal(t, 0, c.Size())
	c.Set(1, []AlertRule{})
	c.Set(2, []AlertRule{})
	assert.Equal(t, 2, c.Size())
}

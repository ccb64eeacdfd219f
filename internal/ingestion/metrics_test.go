package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRollingStatsAccumulates(t *testing.T) {
	s := NewRollingStats()
	s.Record(10, 1, 100*time.Millisecond)
	s.Record(20, 0, 300*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, int64(2), snap.TotalIngestions)
	assert.Equal(t, int64(30), snap.TotalRecordsProcessed)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.Equal(t, 200*time.Millisecond, snap.AverageProcessingTime)
}

func TestRollingStatsEmptySnapshot(t *testing.T) {
	s := NewRollingStats()
	snap := s.Snapshot()
	assert.Equal(t, int64(0), snap.TotalIngestions)
	assert.Equal(t, time.Duration(0), snap.AverageProcessingTime)
}

package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippetTruncatesLongQueries(t *testing.T) {
	short := "SELECT 1"
	assert.Equal(t, short, snippet(short))

	long := "SELECT " + strings.Repeat("x", 200)
	got := snippet(long)
	assert.Len(t, got, slowQuerySnippetLen)
	assert.Equal(t, long[:slowQuerySnippetLen], got)
}

func TestSnippetTrimsWhitespace(t *testing.T) {
	assert.Equal(t, "SELECT 1", snippet("  SELECT 1  "))
}

func TestIsRetryableDriverError(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("context deadline exceeded: timeout"), true},
		{errors.New("pq: terminating connection due to administrator command (admin shutdown)"), true},
		{errors.New("pq: could not serialize access due to serialization failure"), true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("pq: duplicate key value violates unique constraint"), false},
		{nil, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.retryable, isRetryableDriverError(c.err))
	}
}

func TestNewGatewayStartsConnected(t *testing.T) {
	g := NewGateway(nil, nil)
	assert.True(t, g.Connected())
}

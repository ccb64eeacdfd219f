package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAcceptsWellFormedRecord(t *testing.T) {
	r := baseRecord()
	assert.NoError(t, Validate(0, r))
}

func TestValidateRejectsMissingFields(t *testing.T) {
	var r Record
	err := Validate(3, r)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "record 3 invalid")
}

func TestValidateRejectsLowercaseRegion(t *testing.T) {
	r := baseRecord()
	r.Region = "tx"
	err := Validate(1, r)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestValidateRejectsUnparseablePublishedAt(t *testing.T) {
	r := baseRecord()
	r.PublishedAt = "not-a-date"
	err := Validate(0, r)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "published_at")
}

func TestValidateRejectsOverlongSourceKey(t *testing.T) {
	r := baseRecord()
	long := make([]byte, maxSourceKeyLen+1)
	for i := range long {
		long[i] = 'a'
	}
	r.SourceKey = string(long)
	err := Validate(0, r)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "source_key")
}

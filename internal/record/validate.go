package record

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var regionPattern = regexp.MustCompile(`^[A-Z]{2}$`)

const maxSourceKeyLen = 255

// Validate checks the required fields, lengths, and formats a record must
// satisfy before it may be upserted. index is used purely to compose the
// error message naming which record in a batch failed.
func Validate(index int, r Record) error {
	var reasons []string

	if r.SourceKey == "" {
		reasons = append(reasons, "source_key is required")
	} else if len(r.SourceKey) > maxSourceKeyLen {
		reasons = append(reasons, fmt.Sprintf("source_key exceeds %d characters", maxSourceKeyLen))
	}

	if r.PublishedAt == "" {
		reasons = append(reasons, "published_at is required")
	} else if _, err := time.Parse(time.RFC3339, r.PublishedAt); err != nil {
		reasons = append(reasons, "published_at is not a parseable instant")
	}

	if r.Title == "" {
		reasons = append(reasons, "title is required")
	}

	if r.EntityNameRaw == "" {
		reasons = append(reasons, "entity_name_raw is required")
	}

	if r.EntityNameNorm == "" {
		reasons = append(reasons, "entity_name_norm is required")
	}

	if r.Region == "" {
		reasons = append(reasons, "region is required")
	} else if !regionPattern.MatchString(r.Region) {
		reasons = append(reasons, "region must match ^[A-Z]{2}$")
	}

	if r.RecordID == "" {
		reasons = append(reasons, "record_id is required")
	}

	if r.Status == "" {
		reasons = append(reasons, "status is required")
	}

	if len(reasons) == 0 {
		return nil
	}

	return fmt.Errorf("record %d invalid: %s", index, strings.Join(reasons, "; "))
}

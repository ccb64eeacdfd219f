package record

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint computes the SHA-256 hex digest used to detect content
// changes between upserts. It is deterministic across implementations:
// the canonical field set is sorted lexicographically by key and joined
// as "key:value" pairs separated by "|". document_url contributes an
// empty string, never a null marker, when absent. published_at is
// hashed exactly as received — the engine does not reformat it, so
// producers are responsible for emitting it consistently.
func Fingerprint(r Record) string {
	fields := map[string]string{
		"document_url":     r.DocumentURL,
		"entity_name_norm": r.EntityNameNorm,
		"entity_name_raw":  r.EntityNameRaw,
		"published_at":     r.PublishedAt,
		"record_id":        r.RecordID,
		"region":           r.Region,
		"source_key":       r.SourceKey,
		"status":           r.Status,
		"title":            r.Title,
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString("|")
		}
		builder.WriteString(k)
		builder.WriteString(":")
		builder.WriteString(fields[k])
	}

	sum := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(sum[:])
}

// Package connector defines the contract producers of canonical records
// implement, plus a reference file-backed implementation used to
// exercise the ingestion engine end-to-end without a real upstream feed.
package connector

import (
	"context"

	"github.com/regwatch/regwatch/internal/record"
)

// Connector is implemented by producers of canonical records. A
// connector must not touch the database, compute hashes, or apply any
// business logic — it reads its source, parses, and maps to the
// canonical shape with entity_name_norm pre-normalized and raw_json
// carrying the unmodified original row. hours is informational only;
// the engine enforces the 72-hour window itself.
type Connector interface {
	FetchBulk(ctx context.Context) ([]record.Record, error)
	FetchRecent(ctx context.Context, hours int) ([]record.Record, error)
}

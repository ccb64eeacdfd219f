package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseRecord() Record {
	return Record{
		SourceKey:      "TX-001",
		PublishedAt:    "2024-01-10T00:00:00Z",
		Title:          "A",
		EntityNameRaw:  "Acme Energy LLC",
		EntityNameNorm: "acme energy llc",
		Region:         "TX",
		RecordID:       "R1",
		Status:         "open",
		DocumentURL:    "u",
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	r := baseRecord()
	assert.Equal(t, Fingerprint(r), Fingerprint(r))
}

func TestFingerprintIgnoresRawJSON(t *testing.T) {
	a := baseRecord()
	a.RawJSON = []byte(`{"a":1}`)

	b := baseRecord()
	b.RawJSON = []byte(`{"a":2}`)

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintChangesWithCanonicalField(t *testing.T) {
	a := baseRecord()
	b := baseRecord()
	b.Title = "A2"

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintTreatsMissingDocumentURLAsEmptyString(t *testing.T) {
	a := baseRecord()
	a.DocumentURL = ""

	b := baseRecord()
	b.DocumentURL = ""

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(baseRecord()))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "acme energy llc", Normalize("  Acme Energy LLC  "))
	assert.Equal(t, "", Normalize("   "))
}

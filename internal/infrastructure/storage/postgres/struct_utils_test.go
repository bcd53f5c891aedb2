package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type AuditFields struct {
	CreatedAt time.Time `db:"created_at"`
}

type mockHeader struct {
	AuditFields
	ID      string `db:"id"`
	Company string `db:"company"`
	Payload []byte `db:"payload"`
	Skipped string `db:"-"`
	NoTag   string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[mockHeader]()
	assert.Equal(t, []string{"created_at", "id", "company", "payload"}, cols)
}

func TestStructToMap(t *testing.T) {
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	h := mockHeader{
		AuditFields: AuditFields{CreatedAt: now},
		ID:          "s1",
		Company:     "ACME",
		Payload:     []byte("[]"),
		Skipped:     "x",
	}

	m := StructToMap(&h)

	assert.Len(t, m, 4)
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "s1", m["id"])
	assert.Equal(t, "ACME", m["company"])
	assert.Equal(t, []byte("[]"), m["payload"])
	assert.Nil(t, StructToMap(42))
}

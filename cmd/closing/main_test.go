package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosingRequest(t *testing.T) {
	req, err := closingRequest("ACME", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "ACME", req.Company)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), req.ToDate)

	_, err = closingRequest("", "2024-01-01", "2024-01-31")
	assert.ErrorContains(t, err, "required")

	_, err = closingRequest("ACME", "2024-13-01", "2024-01-31")
	assert.ErrorContains(t, err, "invalid --from")
}

func TestRun_RequiresFlags(t *testing.T) {
	err := run([]string{"--company", "ACME"})
	assert.ErrorContains(t, err, "required")
}

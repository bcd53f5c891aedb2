package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	for _, cmd := range []string{"up", "down", "version"} {
		got, err := parseCommand([]string{cmd})
		require.NoError(t, err)
		assert.Equal(t, cmd, got)
	}

	_, err := parseCommand(nil)
	assert.ErrorContains(t, err, "expected one command")

	_, err = parseCommand([]string{"sideways"})
	assert.ErrorContains(t, err, "unknown command")
}

func TestRun_RejectsUnknownCommandBeforeConnecting(t *testing.T) {
	err := run([]string{"--database.dsn", "postgres://localhost/none", "redo"})
	assert.ErrorContains(t, err, "unknown command")
}

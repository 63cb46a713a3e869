package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"studysync-service/internal/generation"
	"studysync-service/internal/infra/postgres"
)

func TestWriteSummaries(t *testing.T) {
	var buf bytes.Buffer
	err := writeSummaries(&buf, []postgres.Summary{
		{Kind: generation.KindQuiz, Total: 3, OK: 2},
		{Kind: generation.KindSections, Total: 1, OK: 1},
	})
	require.NoError(t, err)

	want := "KIND      TOTAL  OK\n" +
		"quiz      3      2\n" +
		"sections  1      1\n"
	assert.Equal(t, want, buf.String())
}

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "migrate", "stats"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	out, err := execute(t, "search", "lake")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Dal Lake (lake)")
	assert.Contains(t, out, "2. Vembanad Lake (lake)")
}

func TestSearchCommand_ShortQuery(t *testing.T) {
	out, err := execute(t, "search", "da")
	require.NoError(t, err)
	assert.Contains(t, out, "shorter than 3 characters")
}

func TestScoresCommand(t *testing.T) {
	out, err := execute(t, "scores")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 11)
	assert.Contains(t, lines[0], "SCORE")
	assert.Contains(t, out, "Dal Lake")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`waterBodies:
  - name: Chilika Lake
    type: lake
    latitude: 19.7165
    longitude: 85.3206
    waterQuality: Good
`), 0o600))

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "1 entries OK")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`waterBodies:
  - name: Chilika Lake
    type: lagoon
    latitude: 19.7165
    longitude: 85.3206
`), 0o600))

	_, err = execute(t, "validate", bad)
	assert.Error(t, err)
}

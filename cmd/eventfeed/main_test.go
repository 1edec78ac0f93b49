package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventfeed/internal/model"
)

const upcomingYAML = `title: March
summary: City march.
format: online
type: march
date:
  start: "2026/02/01"
  start_time: "15:00"
  precision: Exact
organizer:
  name: Org
status: verified
`

const pastYAML = `title: Vigil
summary: Candles.
format: online
type: vigil
date:
  start: "2025/11/01"
  precision: Approx
organizer:
  name: Org
status: verified
`

func setup(t *testing.T) (configPath, eventsDir string) {
	t.Helper()
	root := t.TempDir()
	eventsDir = filepath.Join(root, "events")
	require.NoError(t, os.MkdirAll(eventsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(eventsDir, "march.yaml"), []byte(upcomingYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(eventsDir, "vigil.yaml"), []byte(pastYAML), 0o644))
	return filepath.Join(root, "config.yaml"), eventsDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExportToFile(t *testing.T) {
	cfgPath, eventsDir := setup(t)
	outPath := filepath.Join(t.TempDir(), "public", "events.ics")

	_, err := run(t, "export", "--config", cfgPath, "--events-dir", eventsDir,
		"--at", "2026-01-20T12:00:00Z", "-o", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "UID:march@iranarchive.net")
	assert.NotContains(t, body, "UID:vigil@")
	assert.Contains(t, body, "DTSTART:20260201T150000Z\r\nDTEND:20260201T160000Z")

	_, err = os.Stat(cfgPath)
	assert.NoError(t, err, "default config written on first run")
}

func TestExportToStdout(t *testing.T) {
	cfgPath, eventsDir := setup(t)
	out, err := run(t, "export", "--config", cfgPath, "--events-dir", eventsDir, "--at", "2026-01-20T12:00:00Z")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR"))
}

func TestListFiltersByState(t *testing.T) {
	cfgPath, eventsDir := setup(t)

	out, err := run(t, "list", "--config", cfgPath, "--events-dir", eventsDir,
		"--at", "2026-01-20T12:00:00Z", "--state", "past", "--json")
	require.NoError(t, err)

	var got []model.ClassifiedEvent
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "vigil", got[0].ID)
	assert.Equal(t, model.StatePast, got[0].ComputedState)

	out, err = run(t, "list", "--config", cfgPath, "--events-dir", eventsDir, "--at", "2026-01-20T12:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "march")
	assert.Contains(t, out, "upcoming")
	assert.Contains(t, out, "2026/02/01 15:00")
}

func TestCommandErrors(t *testing.T) {
	cfgPath, eventsDir := setup(t)

	_, err := run(t, "list", "--config", cfgPath, "--events-dir", eventsDir, "--state", "held")
	assert.Error(t, err)

	_, err = run(t, "export", "--config", cfgPath, "--events-dir", eventsDir, "--at", "yesterday")
	assert.Error(t, err)

	_, err = run(t, "list", "--config", cfgPath, "--log-level", "loud")
	assert.Error(t, err)

	_, err = run(t, "import", "--config", cfgPath)
	assert.Error(t, err, "import needs a url")

	_, err = run(t, "import", "--config", cfgPath, "file:///etc/passwd")
	assert.Error(t, err)
}
